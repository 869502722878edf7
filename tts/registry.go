package tts

import (
	"fmt"
	"sort"
	"sync"

	"github.com/uttslabs/utts/config"
	"github.com/uttslabs/utts/param"
)

// Factory builds a provider Service from its resolved API key and
// configuration block.
type Factory func(apiKey string, cfg config.Provider) (Service, error)

// Entry describes one registered provider: how to build it and the voice and
// model domains random selection draws from.
type Entry struct {
	// Name is the provider identifier, matching Service.Name().
	Name string

	// Factory constructs the provider's Service.
	Factory Factory

	// Voices are the voice IDs valid for this provider.
	Voices param.Domain[string]

	// Models are the model identifiers valid for this provider.
	Models param.Domain[string]
}

// Registry maps provider names to entries. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds or replaces an entry under its name.
func (r *Registry) Register(entry Entry) error {
	if entry.Name == "" {
		return fmt.Errorf("registry entry requires a name")
	}
	if entry.Factory == nil {
		return fmt.Errorf("registry entry %q requires a factory", entry.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.Name] = entry
	return nil
}

// Get returns the entry for the named provider.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// voiceIDs projects a voice list onto a selection domain.
func voiceIDs(voices []Voice) param.Domain[string] {
	ids := make([]string, len(voices))
	for i, v := range voices {
		ids[i] = v.ID
	}
	return param.NewDomain(ids...)
}

// DefaultRegistry returns a registry with every supported provider wired in.
// Kokoro and Orpheus register as distinct providers even though both run on
// Replicate and share its credential.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Voice and model domains come from throwaway service instances; the
	// adapters keep these static.
	var (
		openai     = NewOpenAI("")
		elevenlabs = NewElevenLabs("")
		cartesia   = NewCartesia("")
		hume       = NewHume("")
		zyphra     = NewZyphra("")
		kokoro     = NewKokoro("")
		orpheus    = NewOrpheus("")
	)

	entries := []Entry{
		{
			Name: config.ProviderOpenAI,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				opts := []OpenAIOption{}
				if cfg.BaseURL != "" {
					opts = append(opts, WithOpenAIBaseURL(cfg.BaseURL))
				}
				if cfg.OrganizationID != "" {
					opts = append(opts, WithOpenAIOrganization(cfg.OrganizationID))
				}
				if cfg.Timeout > 0 {
					opts = append(opts, WithOpenAIClient(newHTTPClient(cfg.Timeout)))
				}
				return NewOpenAI(apiKey, opts...), nil
			},
			Voices: voiceIDs(openai.SupportedVoices()),
			Models: param.NewDomain(openai.SupportedModels()...),
		},
		{
			Name: config.ProviderElevenLabs,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				opts := []ElevenLabsOption{}
				if cfg.BaseURL != "" {
					opts = append(opts, WithElevenLabsBaseURL(cfg.BaseURL))
				}
				if cfg.Timeout > 0 {
					opts = append(opts, WithElevenLabsClient(newHTTPClient(cfg.Timeout)))
				}
				return NewElevenLabs(apiKey, opts...), nil
			},
			Voices: voiceIDs(elevenlabs.SupportedVoices()),
			Models: param.NewDomain(elevenlabs.SupportedModels()...),
		},
		{
			Name: config.ProviderCartesia,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				opts := []CartesiaOption{}
				if cfg.BaseURL != "" {
					opts = append(opts, WithCartesiaBaseURL(cfg.BaseURL))
				}
				if cfg.Timeout > 0 {
					opts = append(opts, WithCartesiaClient(newHTTPClient(cfg.Timeout)))
				}
				return NewCartesia(apiKey, opts...), nil
			},
			Voices: voiceIDs(cartesia.SupportedVoices()),
			Models: param.NewDomain(cartesia.SupportedModels()...),
		},
		{
			Name: config.ProviderHume,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				opts := []HumeOption{}
				if cfg.BaseURL != "" {
					opts = append(opts, WithHumeBaseURL(cfg.BaseURL))
				}
				if cfg.Timeout > 0 {
					opts = append(opts, WithHumeClient(newHTTPClient(cfg.Timeout)))
				}
				return NewHume(apiKey, opts...), nil
			},
			Voices: voiceIDs(hume.SupportedVoices()),
			Models: param.NewDomain(hume.SupportedModels()...),
		},
		{
			Name: config.ProviderZyphra,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				opts := []ZyphraOption{}
				if cfg.BaseURL != "" {
					opts = append(opts, WithZyphraBaseURL(cfg.BaseURL))
				}
				if cfg.Timeout > 0 {
					opts = append(opts, WithZyphraClient(newHTTPClient(cfg.Timeout)))
				}
				return NewZyphra(apiKey, opts...), nil
			},
			Voices: voiceIDs(zyphra.SupportedVoices()),
			Models: param.NewDomain(zyphra.SupportedModels()...),
		},
		{
			Name: config.ProviderKokoro,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				replicateOpts := []ReplicateOption{}
				if cfg.BaseURL != "" {
					replicateOpts = append(replicateOpts, WithReplicateBaseURL(cfg.BaseURL))
				}
				if cfg.Timeout > 0 {
					replicateOpts = append(replicateOpts, WithReplicateClient(newHTTPClient(cfg.Timeout)))
				}
				return NewKokoro(apiKey, WithKokoroReplicate(NewReplicate(apiKey, replicateOpts...))), nil
			},
			Voices: voiceIDs(kokoro.SupportedVoices()),
			Models: param.NewDomain(kokoro.SupportedModels()...),
		},
		{
			Name: config.ProviderOrpheus,
			Factory: func(apiKey string, cfg config.Provider) (Service, error) {
				replicateOpts := []ReplicateOption{}
				if cfg.BaseURL != "" {
					replicateOpts = append(replicateOpts, WithReplicateBaseURL(cfg.BaseURL))
				}
				if cfg.Timeout > 0 {
					replicateOpts = append(replicateOpts, WithReplicateClient(newHTTPClient(cfg.Timeout)))
				}
				return NewOrpheus(apiKey, WithOrpheusReplicate(NewReplicate(apiKey, replicateOpts...))), nil
			},
			Voices: voiceIDs(orpheus.SupportedVoices()),
			Models: param.NewDomain(orpheus.SupportedModels()...),
		},
	}

	for _, entry := range entries {
		// Entries above always carry a name and factory.
		_ = r.Register(entry)
	}
	return r
}
