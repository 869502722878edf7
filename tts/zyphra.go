package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uttslabs/utts/logger"
)

const (
	zyphraBaseURL     = "https://api.zyphra.com/v1"
	zyphraTTSEndpoint = "/audio/text-to-speech"

	// ZyphraModelTransformer is the Zonos transformer model (default).
	ZyphraModelTransformer = "zonos-v0.1-transformer"
	// ZyphraModelHybrid is the Zonos hybrid model.
	ZyphraModelHybrid = "zonos-v0.1-hybrid"

	// Default timeout for Zyphra requests.
	defaultZyphraTimeout = 10 * time.Second

	// HTTP status code threshold for server errors.
	zyphraServerErrorThreshold = 500

	// zyphraDefaultVoice is the default named voice.
	zyphraDefaultVoice = "american_female"

	// Speaking rate bounds and default. The API expects an absolute rate,
	// not a multiplier; baseline 15 maps to Speed 1.0.
	zyphraBaseSpeakingRate = 15.0
	zyphraMinSpeakingRate  = 5.0
	zyphraMaxSpeakingRate  = 35.0
)

// ZyphraService implements TTS using Zyphra's Zonos API.
// The response body is the raw audio in the requested MIME type.
type ZyphraService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	model   string
}

// ZyphraOption configures the Zyphra TTS service.
type ZyphraOption func(*ZyphraService)

// WithZyphraBaseURL sets a custom base URL.
func WithZyphraBaseURL(url string) ZyphraOption {
	return func(s *ZyphraService) {
		s.baseURL = url
	}
}

// WithZyphraClient sets a custom HTTP client.
func WithZyphraClient(client *http.Client) ZyphraOption {
	return func(s *ZyphraService) {
		s.client = client
	}
}

// WithZyphraModel sets the TTS model.
func WithZyphraModel(model string) ZyphraOption {
	return func(s *ZyphraService) {
		s.model = model
	}
}

// NewZyphra creates a Zyphra TTS service.
func NewZyphra(apiKey string, opts ...ZyphraOption) *ZyphraService {
	s := &ZyphraService{
		apiKey:  apiKey,
		baseURL: zyphraBaseURL,
		client:  newHTTPClient(defaultZyphraTimeout),
		model:   ZyphraModelTransformer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *ZyphraService) Name() string {
	return "zyphra"
}

// zyphraRequest is the request body for Zyphra's TTS API.
type zyphraRequest struct {
	Text             string  `json:"text"`
	Model            string  `json:"model,omitempty"`
	SpeakingRate     float64 `json:"speaking_rate,omitempty"`
	MimeType         string  `json:"mime_type,omitempty"`
	DefaultVoiceName string  `json:"default_voice_name,omitempty"`
	LanguageISOCode  string  `json:"language_iso_code,omitempty"`
}

// Synthesize converts text to audio using Zyphra's TTS API.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *ZyphraService) Synthesize(
	ctx context.Context, text string, config SynthesisConfig,
) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	voice := config.Voice
	if voice == "" {
		voice = zyphraDefaultVoice
	}

	model := config.Model
	if model == "" {
		model = s.model
	}

	reqBody := zyphraRequest{
		Text:             text,
		Model:            model,
		SpeakingRate:     mapSpeakingRate(config.Speed),
		MimeType:         s.mapFormat(config.Format),
		DefaultVoiceName: voice,
		LanguageISOCode:  config.Language,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+zyphraTTSEndpoint,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	logger.APIRequest("zyphra", http.MethodPost, s.baseURL+zyphraTTSEndpoint, nil, reqBody)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.APIResponse("zyphra", 0, "", err)
		return nil, NewSynthesisError("zyphra", "", "request failed", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, s.handleError(resp)
	}

	logger.APIResponse("zyphra", resp.StatusCode, "", nil)
	return resp.Body, nil
}

// mapSpeakingRate converts the config's speed multiplier to Zyphra's
// absolute speaking rate, clamped to the API's accepted range.
func mapSpeakingRate(speed float64) float64 {
	if speed == 0 {
		speed = 1.0
	}
	rate := zyphraBaseSpeakingRate * speed
	if rate < zyphraMinSpeakingRate {
		return zyphraMinSpeakingRate
	}
	if rate > zyphraMaxSpeakingRate {
		return zyphraMaxSpeakingRate
	}
	return rate
}

// mapFormat converts AudioFormat to the MIME type Zyphra returns.
func (s *ZyphraService) mapFormat(format AudioFormat) string {
	switch format.Name {
	case formatWAV:
		return "audio/wav"
	case formatMP3:
		return "audio/mpeg"
	case "ogg":
		return "audio/ogg"
	case "webm":
		return "audio/webm"
	default:
		return "audio/wav"
	}
}

// zyphraErrorResponse represents an error response from Zyphra.
type zyphraErrorResponse struct {
	Detail string `json:"detail"`
}

// handleError processes an error response from Zyphra.
func (s *ZyphraService) handleError(resp *http.Response) error {
	var errResp zyphraErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return NewSynthesisError(
			"zyphra",
			fmt.Sprintf("%d", resp.StatusCode),
			"unknown error",
			err,
			resp.StatusCode >= zyphraServerErrorThreshold,
		)
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= zyphraServerErrorThreshold

	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	case http.StatusUnauthorized:
		cause = fmt.Errorf("invalid API key")
	case http.StatusBadRequest:
		cause = fmt.Errorf("bad request")
	}

	logger.APIResponse("zyphra", resp.StatusCode, errResp.Detail, nil)

	return NewSynthesisError(
		"zyphra",
		fmt.Sprintf("%d", resp.StatusCode),
		errResp.Detail,
		cause,
		retryable,
	)
}

// SupportedVoices returns the named default voices Zyphra ships.
func (s *ZyphraService) SupportedVoices() []Voice {
	return []Voice{
		{
			ID:       "american_female",
			Name:     "American Female",
			Language: "en-us",
			Gender:   "female",
		},
		{
			ID:       "american_male",
			Name:     "American Male",
			Language: "en-us",
			Gender:   "male",
		},
		{
			ID:       "british_female",
			Name:     "British Female",
			Language: "en-gb",
			Gender:   "female",
		},
		{
			ID:       "british_male",
			Name:     "British Male",
			Language: "en-gb",
			Gender:   "male",
		},
		{
			ID:       "energetic_female",
			Name:     "Energetic Female",
			Language: "en-us",
			Gender:   "female",
		},
		{
			ID:       "energetic_male",
			Name:     "Energetic Male",
			Language: "en-us",
			Gender:   "male",
		},
	}
}

// SupportedModels returns the Zonos model identifiers.
func (s *ZyphraService) SupportedModels() []string {
	return []string{ZyphraModelTransformer, ZyphraModelHybrid}
}

// SupportedFormats returns audio formats supported by Zyphra.
func (s *ZyphraService) SupportedFormats() []AudioFormat {
	return []AudioFormat{
		FormatWAV,
		FormatMP3,
		{
			Name:       "ogg",
			MIMEType:   "audio/ogg",
			SampleRate: sampleRateDefault,
			BitDepth:   0,
			Channels:   1,
		},
		{
			Name:       "webm",
			MIMEType:   "audio/webm",
			SampleRate: sampleRateDefault,
			BitDepth:   0,
			Channels:   1,
		},
	}
}
