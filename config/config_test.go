package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKeyExplicit(t *testing.T) {
	p := Provider{APIKey: "explicit-key"}

	key, err := p.ResolveKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "explicit-key", key)
}

func TestResolveKeyFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.txt")
	require.NoError(t, os.WriteFile(path, []byte("  file-key\n"), 0o600))

	p := Provider{KeyFile: path}

	key, err := p.ResolveKey(ProviderElevenLabs)
	require.NoError(t, err)
	assert.Equal(t, "file-key", key, "key file contents should be trimmed")
}

func TestResolveKeyFileMissing(t *testing.T) {
	p := Provider{KeyFile: filepath.Join(t.TempDir(), "nope.txt")}

	_, err := p.ResolveKey(ProviderElevenLabs)
	assert.Error(t, err)
}

func TestResolveKeyFromNamedEnv(t *testing.T) {
	t.Setenv("MY_CUSTOM_KEY", "env-key")

	p := Provider{KeyEnv: "MY_CUSTOM_KEY"}

	key, err := p.ResolveKey(ProviderCartesia)
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
}

func TestResolveKeyNamedEnvUnset(t *testing.T) {
	p := Provider{KeyEnv: "UTTS_TEST_UNSET_VAR"}

	_, err := p.ResolveKey(ProviderCartesia)
	assert.Error(t, err, "an explicitly named but unset env var is a configuration error")
}

func TestResolveKeyDefaultEnvChain(t *testing.T) {
	t.Setenv("UTTS_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "fallback-key")

	key, err := Provider{}.ResolveKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", key)

	// The scoped variable wins over the generic one.
	t.Setenv("UTTS_OPENAI_API_KEY", "scoped-key")
	key, err = Provider{}.ResolveKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "scoped-key", key)
}

func TestResolveKeyChainOrder(t *testing.T) {
	t.Setenv("UTTS_HUME_API_KEY", "default-env-key")

	// Explicit key beats everything else.
	p := Provider{APIKey: "explicit", KeyEnv: "UTTS_HUME_API_KEY"}
	key, err := p.ResolveKey(ProviderHume)
	require.NoError(t, err)
	assert.Equal(t, "explicit", key)
}

func TestResolveKeyUnconfigured(t *testing.T) {
	t.Setenv("UTTS_ZYPHRA_API_KEY", "")
	t.Setenv("ZYPHRA_API_KEY", "")

	key, err := Provider{}.ResolveKey(ProviderZyphra)
	require.NoError(t, err)
	assert.Empty(t, key, "missing credentials are not an error, the provider is just absent")
}

func TestResolveKeyHostedModelsShareReplicateEnv(t *testing.T) {
	t.Setenv("UTTS_REPLICATE_API_KEY", "")
	t.Setenv("REPLICATE_API_TOKEN", "r8_env")

	for _, name := range []string{ProviderKokoro, ProviderOrpheus, ProviderReplicate} {
		key, err := Provider{}.ResolveKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, "r8_env", key, "%s should resolve through the replicate env vars", name)
	}
}

func TestSettingsProviderSharedReplicate(t *testing.T) {
	s := Settings{Replicate: Provider{APIKey: "r8_test"}}

	for _, name := range []string{ProviderReplicate, ProviderKokoro, ProviderOrpheus} {
		p, ok := s.Provider(name)
		require.True(t, ok, name)
		assert.Equal(t, "r8_test", p.APIKey, "%s should share the replicate credential", name)
	}

	_, ok := s.Provider("unknown")
	assert.False(t, ok)
}

func TestSettingsProviderTimeoutFill(t *testing.T) {
	s := Settings{
		Timeout: 30 * time.Second,
		OpenAI:  Provider{APIKey: "sk-test"},
		Zyphra:  Provider{APIKey: "zsk-test", Timeout: 5 * time.Second},
	}

	p, _ := s.Provider(ProviderOpenAI)
	assert.Equal(t, 30*time.Second, p.Timeout, "shared timeout fills unset blocks")

	p, _ = s.Provider(ProviderZyphra)
	assert.Equal(t, 5*time.Second, p.Timeout, "per-provider timeout wins")
}

func TestSettingsConfigured(t *testing.T) {
	for _, vars := range DefaultEnvVars {
		for _, v := range vars {
			t.Setenv(v, "")
		}
	}

	s := Settings{
		OpenAI:   Provider{APIKey: "sk-test"},
		Cartesia: Provider{APIKey: "cart-test"},
	}

	assert.Equal(t, []string{ProviderCartesia, ProviderOpenAI}, s.Configured())
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UTTS_DEBUG", "true")

	s := FromEnv()

	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, "debug", s.LogLevel)
	assert.True(t, s.Debug)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utts.yaml")
	content := `
openai:
  api_key: sk-from-yaml
  organization_id: org-123
elevenlabs:
  key_env: ELEVEN_CUSTOM
replicate:
  api_key: r8_yaml
timeout: 30s
log_level: warn
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-yaml", s.OpenAI.APIKey)
	assert.Equal(t, "org-123", s.OpenAI.OrganizationID)
	assert.Equal(t, "ELEVEN_CUSTOM", s.ElevenLabs.KeyEnv)
	assert.Equal(t, "r8_yaml", s.Replicate.APIKey)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "warn", s.LogLevel)
	assert.True(t, s.Debug)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDefaultsTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "utts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai:\n  api_key: sk-x\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, s.Timeout)
}
