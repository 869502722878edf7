package tts

import (
	"bytes"
	"context"
	"io"
)

const (
	// kokoroVersion pins the Kokoro 82M model on Replicate.
	kokoroVersion = "f559560eb822dc509045f3921a1921234918b91739db4bf3daab2169b71c7a13"

	kokoroDefaultVoice = "af_bella"
)

// KokoroService implements TTS using the Kokoro model hosted on Replicate.
type KokoroService struct {
	replicate *ReplicateClient
}

// KokoroOption configures the Kokoro TTS service.
type KokoroOption func(*KokoroService)

// WithKokoroReplicate sets the underlying Replicate client.
func WithKokoroReplicate(client *ReplicateClient) KokoroOption {
	return func(s *KokoroService) {
		s.replicate = client
	}
}

// NewKokoro creates a Kokoro TTS service backed by Replicate.
// The API key is a Replicate API token.
func NewKokoro(apiKey string, opts ...KokoroOption) *KokoroService {
	s := &KokoroService{
		replicate: NewReplicate(apiKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *KokoroService) Name() string {
	return "kokoro"
}

// Synthesize converts text to audio by running the pinned Kokoro model.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *KokoroService) Synthesize(
	ctx context.Context, text string, config SynthesisConfig,
) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	voice := config.Voice
	if voice == "" {
		voice = kokoroDefaultVoice
	}

	speed := config.Speed
	if speed == 0 {
		speed = 1.0
	}

	input := map[string]interface{}{
		"text":  text,
		"voice": voice,
		"speed": speed,
	}

	audio, err := s.replicate.Predict(ctx, s.Name(), kokoroVersion, input)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(audio)), nil
}

// SupportedVoices returns the voices the Kokoro model ships.
// Voice IDs encode accent and gender: af/am American, bf/bm British.
func (s *KokoroService) SupportedVoices() []Voice {
	return []Voice{
		{ID: "af_bella", Name: "Bella", Language: "en-us", Gender: "female"},
		{ID: "af_nicole", Name: "Nicole", Language: "en-us", Gender: "female"},
		{ID: "af_sarah", Name: "Sarah", Language: "en-us", Gender: "female"},
		{ID: "af_sky", Name: "Sky", Language: "en-us", Gender: "female"},
		{ID: "am_adam", Name: "Adam", Language: "en-us", Gender: "male"},
		{ID: "am_michael", Name: "Michael", Language: "en-us", Gender: "male"},
		{ID: "bf_emma", Name: "Emma", Language: "en-gb", Gender: "female"},
		{ID: "bf_isabella", Name: "Isabella", Language: "en-gb", Gender: "female"},
		{ID: "bm_george", Name: "George", Language: "en-gb", Gender: "male"},
		{ID: "bm_lewis", Name: "Lewis", Language: "en-gb", Gender: "male"},
	}
}

// SupportedModels returns the single pinned model identifier.
func (s *KokoroService) SupportedModels() []string {
	return []string{"kokoro-82m"}
}

// SupportedFormats returns audio formats supported by Kokoro.
func (s *KokoroService) SupportedFormats() []AudioFormat {
	return []AudioFormat{FormatWAV}
}
