package utts

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/uttslabs/utts/batch"
	"github.com/uttslabs/utts/config"
	"github.com/uttslabs/utts/events"
	"github.com/uttslabs/utts/param"
	"github.com/uttslabs/utts/tts"
)

// newFakeClient builds a client backed by the given fakes only.
func newFakeClient(t *testing.T, fakes []*fakeService, opts ...Option) *Client {
	t.Helper()
	clearDefaultKeys(t)

	for _, fake := range fakes {
		opts = append(opts, WithService(fake.name, fake))
	}
	client, err := New(config.Settings{}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestCompare_OutcomesAlignWithProviders(t *testing.T) {
	alpha := &fakeService{name: "alpha"}
	beta := &fakeService{name: "beta"}
	client := newFakeClient(t, []*fakeService{alpha, beta})

	outcomes, err := client.Compare(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}

	// Default provider order is sorted by name
	wantAudio := []string{"alpha:hi", "beta:hi"}
	for i, want := range wantAudio {
		if outcomes[i].Failed() {
			t.Errorf("outcome %d failed: %v", i, outcomes[i].Err)
		}
		if string(outcomes[i].Audio) != want {
			t.Errorf("outcome %d audio = %q, want %q", i, outcomes[i].Audio, want)
		}
		if outcomes[i].Index != i {
			t.Errorf("outcome %d index = %d", i, outcomes[i].Index)
		}
	}
}

func TestCompare_WithProviders(t *testing.T) {
	alpha := &fakeService{name: "alpha"}
	beta := &fakeService{name: "beta"}
	client := newFakeClient(t, []*fakeService{alpha, beta})

	outcomes, err := client.Compare(context.Background(), "hi", WithProviders("beta"))
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Provider != "beta" {
		t.Errorf("provider = %q, want %q", outcomes[0].Provider, "beta")
	}
	if len(alpha.recorded()) != 0 {
		t.Error("alpha should not have been called")
	}
}

func TestCompare_WithProviders_Order(t *testing.T) {
	alpha := &fakeService{name: "alpha"}
	beta := &fakeService{name: "beta"}
	client := newFakeClient(t, []*fakeService{alpha, beta})

	outcomes, err := client.Compare(context.Background(), "hi", WithProviders("beta", "alpha"))
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if outcomes[0].Provider != "beta" || outcomes[1].Provider != "alpha" {
		t.Errorf("providers = [%q, %q], want [beta, alpha]",
			outcomes[0].Provider, outcomes[1].Provider)
	}
}

func TestCompare_UnknownProvider(t *testing.T) {
	client := newFakeClient(t, []*fakeService{{name: "alpha"}})

	_, err := client.Compare(context.Background(), "hi", WithProviders("nope"))
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestCompare_NoProviders(t *testing.T) {
	client := newFakeClient(t, nil)

	outcomes, err := client.Compare(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if outcomes == nil {
		t.Fatal("expected non-nil outcome slice")
	}
	if len(outcomes) != 0 {
		t.Errorf("expected 0 outcomes, got %d", len(outcomes))
	}
}

func TestCompare_PartialFailure(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	alpha := &fakeService{name: "alpha"}
	beta := &fakeService{name: "beta", err: wantErr}
	client := newFakeClient(t, []*fakeService{alpha, beta})

	outcomes, err := client.Compare(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if outcomes[0].Failed() {
		t.Errorf("alpha outcome failed: %v", outcomes[0].Err)
	}
	if !outcomes[1].Failed() {
		t.Fatal("beta outcome should have failed")
	}

	var taskErr *batch.TaskError
	if !errors.As(outcomes[1].Err, &taskErr) {
		t.Fatalf("expected *batch.TaskError, got %T", outcomes[1].Err)
	}
	if !errors.Is(outcomes[1].Err, wantErr) {
		t.Errorf("error chain should contain %v, got %v", wantErr, outcomes[1].Err)
	}
}

func TestCompareTexts_OnePerTextAndProvider(t *testing.T) {
	alpha := &fakeService{name: "alpha"}
	beta := &fakeService{name: "beta"}
	client := newFakeClient(t, []*fakeService{alpha, beta})

	outcomes, err := client.CompareTexts(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("CompareTexts() error = %v", err)
	}

	// Ordered by text, then by provider
	want := []string{"alpha:one", "beta:one", "alpha:two", "beta:two"}
	if len(outcomes) != len(want) {
		t.Fatalf("expected %d outcomes, got %d", len(want), len(outcomes))
	}
	for i, w := range want {
		if string(outcomes[i].Audio) != w {
			t.Errorf("outcome %d audio = %q, want %q", i, outcomes[i].Audio, w)
		}
	}
}

func TestCompare_WithConfig(t *testing.T) {
	fake := &fakeService{name: "fake"}
	client := newFakeClient(t, []*fakeService{fake})

	cfg := tts.SynthesisConfig{Voice: "v1", Model: "m1", Speed: 1.5}
	if _, err := client.Compare(context.Background(), "hi", WithConfig(cfg)); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	calls := fake.recorded()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].cfg != cfg {
		t.Errorf("config = %+v, want %+v", calls[0].cfg, cfg)
	}
}

func TestCompare_RandomVoices_Deterministic(t *testing.T) {
	voices := []tts.Voice{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}, {ID: "v4"}, {ID: "v5"}}

	pick := func() string {
		fake := &fakeService{name: "fake", voices: voices}
		client := newFakeClient(t, []*fakeService{fake},
			WithRand(rand.New(rand.NewSource(7)))) //nolint:gosec // deterministic test source
		if _, err := client.Compare(context.Background(), "hi", WithRandomVoices()); err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		calls := fake.recorded()
		if len(calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(calls))
		}
		return calls[0].cfg.Voice
	}

	first := pick()
	second := pick()
	if first != second {
		t.Errorf("same seed picked different voices: %q vs %q", first, second)
	}

	found := false
	for _, v := range voices {
		if v.ID == first {
			found = true
		}
	}
	if !found {
		t.Errorf("picked voice %q is not in the domain", first)
	}
}

func TestCompare_RandomVoices_SharedAcrossTexts(t *testing.T) {
	fake := &fakeService{name: "fake", voices: []tts.Voice{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}}}
	client := newFakeClient(t, []*fakeService{fake})

	_, err := client.CompareTexts(context.Background(), []string{"one", "two"}, WithRandomVoices())
	if err != nil {
		t.Fatalf("CompareTexts() error = %v", err)
	}

	calls := fake.recorded()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].cfg.Voice != calls[1].cfg.Voice {
		t.Errorf("voice changed between texts: %q vs %q", calls[0].cfg.Voice, calls[1].cfg.Voice)
	}
}

func TestCompare_RandomVoices_OverridesConfigVoice(t *testing.T) {
	fake := &fakeService{name: "fake", voices: []tts.Voice{{ID: "v1"}}}
	client := newFakeClient(t, []*fakeService{fake})

	_, err := client.Compare(context.Background(), "hi",
		WithConfig(tts.SynthesisConfig{Voice: "fixed"}), WithRandomVoices())
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	calls := fake.recorded()
	if calls[0].cfg.Voice != "v1" {
		t.Errorf("voice = %q, want random pick %q", calls[0].cfg.Voice, "v1")
	}
}

func TestCompare_RandomVoices_EmptyDomain(t *testing.T) {
	fake := &fakeService{name: "fake"}
	client := newFakeClient(t, []*fakeService{fake})

	_, err := client.Compare(context.Background(), "hi", WithRandomVoices())
	if !errors.Is(err, param.ErrEmptyDomain) {
		t.Errorf("expected ErrEmptyDomain, got %v", err)
	}
}

func TestCompare_RandomVoices_UsesRegistryDomain(t *testing.T) {
	clearDefaultKeys(t)

	// A real provider draws its voice domain from the registry, not from a
	// fresh adapter instance.
	client, err := New(config.Settings{
		OpenAI: config.Provider{APIKey: "sk-test"},
	}, WithRand(rand.New(rand.NewSource(1)))) //nolint:gosec // deterministic test source
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	voice, err := client.pickVoice("openai", client.services["openai"])
	if err != nil {
		t.Fatalf("pickVoice() error = %v", err)
	}

	entry, _ := client.registry.Get("openai")
	if !entry.Voices.Contains(voice) {
		t.Errorf("picked voice %q not in registry domain %v", voice, entry.Voices.Values())
	}
}

func TestCompare_RandomVoices_EmitsEvent(t *testing.T) {
	bus := events.NewEventBus()
	got := make(chan *events.Event, 1)
	bus.Subscribe(events.EventVoiceSelected, func(evt *events.Event) {
		got <- evt
	})

	fake := &fakeService{name: "fake", voices: []tts.Voice{{ID: "v1"}}}
	client := newFakeClient(t, []*fakeService{fake}, WithEventBus(bus))

	if _, err := client.Compare(context.Background(), "hi", WithRandomVoices()); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	select {
	case evt := <-got:
		data, ok := evt.Data.(*events.VoiceSelectedData)
		if !ok {
			t.Fatalf("unexpected data type %T", evt.Data)
		}
		if data.Provider != "fake" || data.Voice != "v1" {
			t.Errorf("selection = %s/%s, want fake/v1", data.Provider, data.Voice)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for voice.selected event")
	}
}
