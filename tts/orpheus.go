package tts

import (
	"bytes"
	"context"
	"io"
)

const (
	// orpheusVersion pins the Orpheus 3B model on Replicate.
	orpheusVersion = "79f2a473e6a9720716a473d9b2f2951437dbf91dc02ccb7079fb3d89b881207f"

	orpheusDefaultVoice = "tara"
)

// OrpheusService implements TTS using the Orpheus model hosted on Replicate.
type OrpheusService struct {
	replicate *ReplicateClient
}

// OrpheusOption configures the Orpheus TTS service.
type OrpheusOption func(*OrpheusService)

// WithOrpheusReplicate sets the underlying Replicate client.
func WithOrpheusReplicate(client *ReplicateClient) OrpheusOption {
	return func(s *OrpheusService) {
		s.replicate = client
	}
}

// NewOrpheus creates an Orpheus TTS service backed by Replicate.
// The API key is a Replicate API token.
func NewOrpheus(apiKey string, opts ...OrpheusOption) *OrpheusService {
	s := &OrpheusService{
		replicate: NewReplicate(apiKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *OrpheusService) Name() string {
	return "orpheus"
}

// Synthesize converts text to audio by running the pinned Orpheus model.
// Orpheus reads inline emotion tags such as <laugh> and <sigh> in the text.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *OrpheusService) Synthesize(
	ctx context.Context, text string, config SynthesisConfig,
) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	voice := config.Voice
	if voice == "" {
		voice = orpheusDefaultVoice
	}

	input := map[string]interface{}{
		"text":  text,
		"voice": voice,
	}

	audio, err := s.replicate.Predict(ctx, s.Name(), orpheusVersion, input)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(audio)), nil
}

// SupportedVoices returns the voices the Orpheus model ships.
func (s *OrpheusService) SupportedVoices() []Voice {
	return []Voice{
		{ID: "tara", Name: "Tara", Language: "en", Gender: "female"},
		{ID: "leah", Name: "Leah", Language: "en", Gender: "female"},
		{ID: "jess", Name: "Jess", Language: "en", Gender: "female"},
		{ID: "leo", Name: "Leo", Language: "en", Gender: "male"},
		{ID: "dan", Name: "Dan", Language: "en", Gender: "male"},
		{ID: "mia", Name: "Mia", Language: "en", Gender: "female"},
		{ID: "zac", Name: "Zac", Language: "en", Gender: "male"},
		{ID: "zoe", Name: "Zoe", Language: "en", Gender: "female"},
	}
}

// SupportedModels returns the single pinned model identifier.
func (s *OrpheusService) SupportedModels() []string {
	return []string{"orpheus-3b"}
}

// SupportedFormats returns audio formats supported by Orpheus.
func (s *OrpheusService) SupportedFormats() []AudioFormat {
	return []AudioFormat{FormatWAV}
}
