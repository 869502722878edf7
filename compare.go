package utts

import (
	"context"
	"fmt"

	"github.com/uttslabs/utts/batch"
	"github.com/uttslabs/utts/events"
	"github.com/uttslabs/utts/param"
	"github.com/uttslabs/utts/tts"
)

// CompareOption configures a Compare or CompareTexts call.
type CompareOption func(*compareOptions)

type compareOptions struct {
	providers    []string
	cfg          tts.SynthesisConfig
	randomVoices bool
}

// WithProviders restricts the comparison to the named providers, in the
// given order. Naming an unavailable provider fails the call.
func WithProviders(names ...string) CompareOption {
	return func(o *compareOptions) {
		o.providers = names
	}
}

// WithConfig sets the synthesis configuration applied to every task. Without
// it each adapter uses its own defaults.
func WithConfig(cfg tts.SynthesisConfig) CompareOption {
	return func(o *compareOptions) {
		o.cfg = cfg
	}
}

// WithRandomVoices picks one uniformly random voice per provider from its
// voice domain, overriding any voice set via WithConfig. Seed the client's
// rand source (WithRand) for reproducible picks.
func WithRandomVoices() CompareOption {
	return func(o *compareOptions) {
		o.randomVoices = true
	}
}

// Compare synthesizes the same text with every selected provider
// concurrently. It returns one outcome per provider; a provider failure
// fills its slot with a *batch.TaskError and never aborts the rest.
func (c *Client) Compare(ctx context.Context, text string, opts ...CompareOption) ([]batch.Outcome, error) {
	return c.CompareTexts(ctx, []string{text}, opts...)
}

// CompareTexts synthesizes every text with every selected provider: one task
// per (text, provider) pair, ordered by text then by provider. With random
// voices enabled, each provider keeps a single picked voice across all texts
// so the comparison varies only the text.
func (c *Client) CompareTexts(ctx context.Context, texts []string, opts ...CompareOption) ([]batch.Outcome, error) {
	co := compareOptions{}
	for _, opt := range opts {
		opt(&co)
	}

	providers := co.providers
	if providers == nil {
		providers = c.Providers()
	}

	for _, name := range providers {
		if _, ok := c.services[name]; !ok {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
	}

	voices := make(map[string]string, len(providers))
	if co.randomVoices {
		for _, name := range providers {
			voice, err := c.pickVoice(name, c.services[name])
			if err != nil {
				return nil, err
			}
			voices[name] = voice

			// Selection happens before a run exists, so the event
			// carries no run ID.
			events.NewEmitter(c.bus, "").VoiceSelected(name, voice)
		}
	}

	tasks := make([]batch.Task, 0, len(texts)*len(providers))
	for _, text := range texts {
		for _, name := range providers {
			cfg := co.cfg
			if voice, ok := voices[name]; ok {
				cfg.Voice = voice
			}
			tasks = append(tasks, batch.Task{
				Service: c.services[name],
				Text:    text,
				Config:  cfg,
			})
		}
	}

	return c.engine.Run(ctx, tasks)
}

// voiceDomain returns the selection domain for a provider's voices,
// preferring the registry entry and falling back to the adapter's own list.
func voiceDomain(registry *tts.Registry, name string, svc tts.Service) param.Domain[string] {
	if entry, ok := registry.Get(name); ok && entry.Voices.Len() > 0 {
		return entry.Voices
	}

	supported := svc.SupportedVoices()
	ids := make([]string, len(supported))
	for i, v := range supported {
		ids[i] = v.ID
	}
	return param.NewDomain(ids...)
}
