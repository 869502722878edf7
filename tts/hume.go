package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uttslabs/utts/logger"
)

const (
	humeBaseURL       = "https://api.hume.ai"
	humeTTSEndpoint   = "/v0/tts"
	humeVoiceEndpoint = "/v0/tts/voices"

	// Default timeout for Hume requests.
	defaultHumeTimeout = 10 * time.Second

	// HTTP status code threshold for server errors.
	humeServerErrorThreshold = 500

	// Generation count bounds accepted by the API.
	humeMinGenerations = 1
	humeMaxGenerations = 5
)

// HumeService implements TTS using Hume's Octave API.
// Hume voices are addressed by name and can be described in natural language:
// a voice description synthesizes a new voice, acting instructions modulate a
// named one.
type HumeService struct {
	apiKey         string
	baseURL        string
	client         *http.Client
	numGenerations int
}

// HumeOption configures the Hume TTS service.
type HumeOption func(*HumeService)

// WithHumeBaseURL sets a custom base URL.
func WithHumeBaseURL(url string) HumeOption {
	return func(s *HumeService) {
		s.baseURL = url
	}
}

// WithHumeClient sets a custom HTTP client.
func WithHumeClient(client *http.Client) HumeOption {
	return func(s *HumeService) {
		s.client = client
	}
}

// WithHumeNumGenerations sets how many variations the API generates per call (1-5).
// Only the first generation's audio is returned by Synthesize.
func WithHumeNumGenerations(n int) HumeOption {
	return func(s *HumeService) {
		if n >= humeMinGenerations && n <= humeMaxGenerations {
			s.numGenerations = n
		}
	}
}

// NewHume creates a Hume TTS service.
func NewHume(apiKey string, opts ...HumeOption) *HumeService {
	s := &HumeService{
		apiKey:         apiKey,
		baseURL:        humeBaseURL,
		client:         newHTTPClient(defaultHumeTimeout),
		numGenerations: humeMinGenerations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *HumeService) Name() string {
	return "hume"
}

// humeVoiceRef addresses a saved voice by name.
type humeVoiceRef struct {
	Name string `json:"name"`
}

// humeUtterance is one text segment in a synthesis request.
type humeUtterance struct {
	Text        string        `json:"text"`
	Voice       *humeVoiceRef `json:"voice,omitempty"`
	Description string        `json:"description,omitempty"`
}

// humeContext chains a request to a previous generation for continuity.
type humeContext struct {
	GenerationID string `json:"generation_id"`
}

// humeFormat selects the output container.
type humeFormat struct {
	Type string `json:"type"`
}

// humeRequest is the request body for Hume's TTS API.
type humeRequest struct {
	Utterances     []humeUtterance `json:"utterances"`
	NumGenerations int             `json:"num_generations,omitempty"`
	Context        *humeContext    `json:"context,omitempty"`
	Format         *humeFormat     `json:"format,omitempty"`
}

// humeGeneration is one synthesized variation in a response.
type humeGeneration struct {
	GenerationID string  `json:"generation_id"`
	Audio        string  `json:"audio"` // Base64-encoded audio
	Duration     float64 `json:"duration"`
}

// humeResponse is the response body from Hume's TTS API.
type humeResponse struct {
	Generations []humeGeneration `json:"generations"`
}

// buildUtterance maps a SynthesisConfig to one Hume utterance.
// A named voice wins over a description; acting instructions ride along as the
// description of a named voice (the API's convention).
func buildUtterance(text string, config SynthesisConfig) humeUtterance {
	u := humeUtterance{Text: text}
	if config.Voice != "" {
		u.Voice = &humeVoiceRef{Name: config.Voice}
		if config.ActingInstructions != "" {
			u.Description = config.ActingInstructions
		}
	} else if config.Description != "" {
		u.Description = config.Description
	}
	return u
}

// Synthesize converts text to audio using Hume's TTS API.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *HumeService) Synthesize(
	ctx context.Context, text string, config SynthesisConfig,
) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	audio, _, err := s.synthesize(ctx, text, config, "")
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(audio)), nil
}

// SynthesizeWithContinuity generates audio for a sequence of texts, chaining
// each request to the previous generation so prosody carries across segments.
// Returns one audio payload per input text, aligned by index.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value for interface symmetry
func (s *HumeService) SynthesizeWithContinuity(
	ctx context.Context, texts []string, config SynthesisConfig,
) ([][]byte, error) {
	if len(texts) == 0 {
		return [][]byte{}, nil
	}

	results := make([][]byte, 0, len(texts))
	generationID := ""

	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
		audio, genID, err := s.synthesize(ctx, text, config, generationID)
		if err != nil {
			return nil, err
		}
		results = append(results, audio)
		generationID = genID
	}

	return results, nil
}

// synthesize performs one API call and returns the first generation's decoded
// audio plus its generation ID (for continuity chaining).
func (s *HumeService) synthesize(
	ctx context.Context, text string, config SynthesisConfig, contextGenerationID string,
) ([]byte, string, error) {
	reqBody := humeRequest{
		Utterances:     []humeUtterance{buildUtterance(text, config)},
		NumGenerations: s.numGenerations,
	}
	if contextGenerationID != "" {
		reqBody.Context = &humeContext{GenerationID: contextGenerationID}
	}
	// The API defaults to WAV; only PCM needs an explicit format.
	if config.Format.Name == formatPCM {
		reqBody.Format = &humeFormat{Type: formatPCM}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+humeTTSEndpoint,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Hume-Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	logger.APIRequest("hume", http.MethodPost, s.baseURL+humeTTSEndpoint, nil, reqBody)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.APIResponse("hume", 0, "", err)
		return nil, "", NewSynthesisError("hume", "", "request failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", s.handleError(resp)
	}

	var ttsResp humeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ttsResp); err != nil {
		return nil, "", NewSynthesisError("hume", "", "malformed response", err, false)
	}
	if len(ttsResp.Generations) == 0 {
		return nil, "", NewSynthesisError("hume", "", "response contained no generations", nil, false)
	}

	gen := ttsResp.Generations[0]
	audio, err := base64.StdEncoding.DecodeString(gen.Audio)
	if err != nil {
		return nil, "", NewSynthesisError("hume", "", "failed to decode audio", err, false)
	}

	logger.APIResponse("hume", resp.StatusCode, "", nil)
	return audio, gen.GenerationID, nil
}

// humeSavedVoice is the response from the voice-save endpoint.
type humeSavedVoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SaveVoice stores the voice of a previous generation in the voice library
// under the given name and returns the saved voice's ID.
func (s *HumeService) SaveVoice(ctx context.Context, generationID, name string) (string, error) {
	reqBody := map[string]string{
		"generation_id": generationID,
		"name":          name,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+humeVoiceEndpoint,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Hume-Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", NewSynthesisError("hume", "", "request failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", s.handleError(resp)
	}

	var voice humeSavedVoice
	if err := json.NewDecoder(resp.Body).Decode(&voice); err != nil {
		return "", NewSynthesisError("hume", "", "malformed response", err, false)
	}
	if voice.ID == "" {
		return "", NewSynthesisError("hume", "", "voice was created without an ID", nil, false)
	}
	return voice.ID, nil
}

// humeErrorResponse represents an error response from Hume.
type humeErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// handleError processes an error response from Hume.
func (s *HumeService) handleError(resp *http.Response) error {
	var errResp humeErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return NewSynthesisError(
			"hume",
			fmt.Sprintf("%d", resp.StatusCode),
			"unknown error",
			err,
			resp.StatusCode >= humeServerErrorThreshold,
		)
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= humeServerErrorThreshold

	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	case http.StatusUnauthorized:
		cause = fmt.Errorf("invalid API key")
	case http.StatusBadRequest:
		cause = fmt.Errorf("bad request")
	}

	logger.APIResponse("hume", resp.StatusCode, errResp.Message, nil)

	return NewSynthesisError(
		"hume",
		errResp.Code,
		errResp.Message,
		cause,
		retryable,
	)
}

// SupportedVoices returns a sample of Hume voice library names.
// Any name saved via SaveVoice is also valid; descriptions synthesize new
// voices without a name at all.
func (s *HumeService) SupportedVoices() []Voice {
	return []Voice{
		{
			ID:          "Ito",
			Name:        "Ito",
			Language:    "en",
			Gender:      "male",
			Description: "Calm, measured narrator",
		},
		{
			ID:          "Kora",
			Name:        "Kora",
			Language:    "en",
			Gender:      "female",
			Description: "Warm, conversational",
		},
		{
			ID:          "Dacher",
			Name:        "Dacher",
			Language:    "en",
			Gender:      "male",
			Description: "Gentle, thoughtful",
		},
		{
			ID:          "Aura",
			Name:        "Aura",
			Language:    "en",
			Gender:      "female",
			Description: "Bright, expressive",
		},
	}
}

// SupportedModels returns the Hume model identifiers.
func (s *HumeService) SupportedModels() []string {
	return []string{"octave"}
}

// SupportedFormats returns audio formats supported by Hume.
func (s *HumeService) SupportedFormats() []AudioFormat {
	return []AudioFormat{
		FormatWAV,
		FormatPCM16,
	}
}
