// Package config holds client settings and API key resolution for all
// supported TTS providers.
//
// Keys resolve through a chain: explicit value, key file, named environment
// variable, then the provider's default environment variables. A provider
// with no resolvable key is simply not configured; that is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout is the shared HTTP timeout applied to every provider
// client unless overridden.
const DefaultTimeout = 10 * time.Second

// Provider names understood by the settings and registry layers.
const (
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
	ProviderCartesia   = "cartesia"
	ProviderHume       = "hume"
	ProviderZyphra     = "zyphra"
	ProviderReplicate  = "replicate"
	ProviderKokoro     = "kokoro"
	ProviderOrpheus    = "orpheus"
)

// DefaultEnvVars maps provider names to their default environment variable
// names, checked in order. The UTTS_-prefixed variants take precedence so a
// key scoped to this tool never collides with one used elsewhere.
// Kokoro and Orpheus run on Replicate and resolve through its variables.
var DefaultEnvVars = map[string][]string{
	ProviderOpenAI:     {"UTTS_OPENAI_API_KEY", "OPENAI_API_KEY"},
	ProviderElevenLabs: {"UTTS_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY"},
	ProviderCartesia:   {"UTTS_CARTESIA_API_KEY", "CARTESIA_API_KEY"},
	ProviderHume:       {"UTTS_HUME_API_KEY", "HUME_API_KEY"},
	ProviderZyphra:     {"UTTS_ZYPHRA_API_KEY", "ZYPHRA_API_KEY"},
	ProviderReplicate:  {"UTTS_REPLICATE_API_KEY", "REPLICATE_API_TOKEN"},
	ProviderKokoro:     {"UTTS_REPLICATE_API_KEY", "REPLICATE_API_TOKEN"},
	ProviderOrpheus:    {"UTTS_REPLICATE_API_KEY", "REPLICATE_API_TOKEN"},
}

// Provider configures one vendor integration.
type Provider struct {
	// APIKey is an explicit API key value. Takes precedence over all
	// other sources.
	APIKey string `yaml:"api_key"`

	// KeyFile is a path to a file containing the API key.
	KeyFile string `yaml:"key_file"`

	// KeyEnv names an environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`

	// BaseURL overrides the vendor's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// OrganizationID is the vendor organization (OpenAI only).
	OrganizationID string `yaml:"organization_id"`

	// Timeout overrides the shared HTTP timeout for this provider.
	// Settings.Provider fills it from the shared Timeout when unset.
	Timeout time.Duration `yaml:"timeout"`
}

// ResolveKey resolves the API key for the named provider following the
// chain: api_key, key_file, key_env, default env vars. An empty result with
// a nil error means the provider is not configured.
func (p Provider) ResolveKey(name string) (string, error) {
	if p.APIKey != "" {
		return p.APIKey, nil
	}

	if p.KeyFile != "" {
		data, err := os.ReadFile(filepath.Clean(p.KeyFile))
		if err != nil {
			return "", fmt.Errorf("failed to read key file for %s: %w", name, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if p.KeyEnv != "" {
		key := os.Getenv(p.KeyEnv)
		if key == "" {
			return "", fmt.Errorf("environment variable %s is not set", p.KeyEnv)
		}
		return key, nil
	}

	for _, envVar := range DefaultEnvVars[name] {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}

	return "", nil
}

// Settings holds the full client configuration.
type Settings struct {
	OpenAI     Provider `yaml:"openai"`
	ElevenLabs Provider `yaml:"elevenlabs"`
	Cartesia   Provider `yaml:"cartesia"`
	Hume       Provider `yaml:"hume"`
	Zyphra     Provider `yaml:"zyphra"`

	// Replicate credentials are shared by the Kokoro and Orpheus
	// hosted models.
	Replicate Provider `yaml:"replicate"`

	// Timeout is the shared HTTP timeout for all provider calls.
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`

	// Debug enables request/response logging.
	Debug bool `yaml:"debug"`
}

// providerOrder fixes iteration order for Configured and similar listings.
var providerOrder = []string{
	ProviderCartesia,
	ProviderElevenLabs,
	ProviderHume,
	ProviderOpenAI,
	ProviderReplicate,
	ProviderZyphra,
}

// Provider returns the configuration block for the named provider, with the
// shared timeout filled in when the block does not set its own.
// Kokoro and Orpheus resolve to the shared Replicate block.
func (s Settings) Provider(name string) (Provider, bool) {
	var p Provider
	switch name {
	case ProviderOpenAI:
		p = s.OpenAI
	case ProviderElevenLabs:
		p = s.ElevenLabs
	case ProviderCartesia:
		p = s.Cartesia
	case ProviderHume:
		p = s.Hume
	case ProviderZyphra:
		p = s.Zyphra
	case ProviderReplicate, ProviderKokoro, ProviderOrpheus:
		p = s.Replicate
	default:
		return Provider{}, false
	}
	if p.Timeout == 0 {
		p.Timeout = s.Timeout
	}
	return p, true
}

// Configured returns the sorted names of providers with a resolvable key.
func (s Settings) Configured() []string {
	var names []string
	for _, name := range providerOrder {
		p, _ := s.Provider(name)
		if key, err := p.ResolveKey(name); err == nil && key != "" {
			names = append(names, name)
		}
	}
	return names
}

// FromEnv builds Settings purely from the environment. Keys resolve lazily
// through the default env var chain; only the shared knobs are read here.
func FromEnv() Settings {
	s := Settings{
		Timeout:  DefaultTimeout,
		LogLevel: os.Getenv("LOG_LEVEL"),
	}
	if os.Getenv("UTTS_DEBUG") == "true" || os.Getenv("UTTS_DEBUG") == "1" {
		s.Debug = true
	}
	return s
}

// Load reads Settings from a YAML file, filling unset values from the
// environment the way FromEnv does.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
	}
	if s.LogLevel == "" {
		s.LogLevel = os.Getenv("LOG_LEVEL")
	}
	return s, nil
}
