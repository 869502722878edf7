package utts

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/uttslabs/utts/batch"
	"github.com/uttslabs/utts/config"
	"github.com/uttslabs/utts/events"
	"github.com/uttslabs/utts/logger"
	"github.com/uttslabs/utts/param"
	"github.com/uttslabs/utts/tts"
)

// Client holds one adapter per configured provider and a batch engine for
// running comparisons across them.
type Client struct {
	services map[string]tts.Service
	registry *tts.Registry
	engine   *batch.Engine
	bus      *events.EventBus

	// rand.Rand is not safe for concurrent use; mu guards rng so Compare
	// can be called from multiple goroutines.
	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures the client.
type Option func(*clientOptions)

type clientOptions struct {
	bus         *events.EventBus
	concurrency int
	services    map[string]tts.Service
	rng         *rand.Rand
}

// WithEventBus attaches an event bus; batch and task lifecycle events and
// voice selections are published to it.
func WithEventBus(bus *events.EventBus) Option {
	return func(o *clientOptions) {
		o.bus = bus
	}
}

// WithConcurrency caps how many synthesis tasks run simultaneously during
// Compare. Zero or negative means unlimited.
func WithConcurrency(n int) Option {
	return func(o *clientOptions) {
		o.concurrency = n
	}
}

// WithService injects or overrides a provider adapter. The service is
// available regardless of configured credentials; tests use this to
// substitute fakes.
func WithService(name string, svc tts.Service) Option {
	return func(o *clientOptions) {
		o.services[name] = svc
	}
}

// WithRand sets the randomness source used for random parameter selection.
// Inject a seeded source for reproducible picks.
func WithRand(rng *rand.Rand) Option {
	return func(o *clientOptions) {
		o.rng = rng
	}
}

// New builds a client from the given settings. Every registered provider
// with a resolvable API key gets an adapter; providers without credentials
// are skipped. Credential resolution failures (unreadable key file, unset
// named env var) are errors.
func New(cfg config.Settings, opts ...Option) (*Client, error) {
	co := clientOptions{services: make(map[string]tts.Service)}
	for _, opt := range opts {
		opt(&co)
	}
	if co.rng == nil {
		co.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // selection, not crypto
	}

	registry := tts.DefaultRegistry()
	services := make(map[string]tts.Service)

	for _, name := range registry.List() {
		pcfg, _ := cfg.Provider(name)
		key, err := pcfg.ResolveKey(name)
		if err != nil {
			return nil, fmt.Errorf("resolving credentials for %s: %w", name, err)
		}
		if key == "" {
			continue
		}

		entry, _ := registry.Get(name)
		svc, err := entry.Factory(key, pcfg)
		if err != nil {
			return nil, fmt.Errorf("building %s adapter: %w", name, err)
		}
		services[name] = svc
	}

	for name, svc := range co.services {
		services[name] = svc
	}

	engineOpts := []batch.Option{}
	if co.bus != nil {
		engineOpts = append(engineOpts, batch.WithEventBus(co.bus))
	}
	if co.concurrency > 0 {
		engineOpts = append(engineOpts, batch.WithConcurrency(co.concurrency))
	}

	logger.Debug("client initialized", "providers", len(services))

	return &Client{
		services: services,
		registry: registry,
		engine:   batch.NewEngine(engineOpts...),
		bus:      co.bus,
		rng:      co.rng,
	}, nil
}

// Provider returns the adapter for the named provider.
func (c *Client) Provider(name string) (tts.Service, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Providers returns the sorted names of all available providers.
func (c *Client) Providers() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Synthesize converts text to audio using the named provider and returns the
// full audio bytes.
func (c *Client) Synthesize(ctx context.Context, provider, text string, cfg tts.SynthesisConfig) ([]byte, error) {
	svc, ok := c.services[provider]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", provider)
	}

	reader, err := svc.Synthesize(ctx, text, cfg)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// pickVoice selects a uniformly random voice for the named provider. The
// domain comes from the registry entry when the provider is registered,
// otherwise from the adapter's own voice list (injected services).
func (c *Client) pickVoice(name string, svc tts.Service) (string, error) {
	domain := voiceDomain(c.registry, name, svc)

	c.mu.Lock()
	voice, err := param.Pick(c.rng, domain)
	c.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("selecting voice for %s: %w", name, err)
	}
	return voice, nil
}
