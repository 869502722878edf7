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
	cartesiaBaseURL    = "https://api.cartesia.ai"
	cartesiaWSURL      = "wss://api.cartesia.ai/tts/websocket"
	cartesiaRESTURL    = "/tts/bytes"
	cartesiaAPIVersion = "2024-06-10"

	// CartesiaModelSonic2 is the current Sonic 2 model (default).
	CartesiaModelSonic2 = "sonic-2"
	// CartesiaModelSonicTurbo is the low-latency Sonic Turbo model.
	CartesiaModelSonicTurbo = "sonic-turbo"
	// CartesiaModelSonic is the original Sonic model.
	CartesiaModelSonic = "sonic"

	// Dated snapshots pin a model to a specific release.
	CartesiaModelSonic2_20250416    = "sonic-2-2025-04-16"
	CartesiaModelSonic2_20250307    = "sonic-2-2025-03-07"
	CartesiaModelSonicTurbo20250307 = "sonic-turbo-2025-03-07"
	CartesiaModelSonic20241212      = "sonic-2024-12-12"
	CartesiaModelSonic20241019      = "sonic-2024-10-19"

	// Default timeout for Cartesia requests.
	defaultCartesiaTimeout = 10 * time.Second

	// cartesiaDefaultVoice is the default voice ID from Cartesia's documentation.
	cartesiaDefaultVoice = "694f9389-aac1-45b6-b726-9d9369183238"

	// streamChannelBuffer is the buffer size for streaming audio chunks.
	streamChannelBuffer = 64

	// HTTP status code threshold for server errors.
	serverErrorThreshold = 500

	// Audio sample rates.
	sampleRate44100 = 44100

	// Audio format names.
	formatPCM = "pcm"
	formatMP3 = "mp3"
	formatWAV = "wav"
)

// cartesiaLanguages are the language codes Cartesia accepts.
var cartesiaLanguages = []string{
	"en", "fr", "de", "es", "pt", "zh", "ja", "hi",
	"it", "ko", "nl", "pl", "ru", "sv", "tr",
}

// CartesiaService implements TTS using Cartesia's ultra-low latency API.
// Cartesia specializes in real-time streaming TTS with <100ms first-byte latency.
type CartesiaService struct {
	apiKey  string
	baseURL string
	wsURL   string
	client  *http.Client
	model   string
}

// CartesiaOption configures the Cartesia TTS service.
type CartesiaOption func(*CartesiaService)

// WithCartesiaBaseURL sets a custom base URL.
func WithCartesiaBaseURL(url string) CartesiaOption {
	return func(s *CartesiaService) {
		s.baseURL = url
	}
}

// WithCartesiaWSURL sets a custom WebSocket URL.
func WithCartesiaWSURL(url string) CartesiaOption {
	return func(s *CartesiaService) {
		s.wsURL = url
	}
}

// WithCartesiaClient sets a custom HTTP client.
func WithCartesiaClient(client *http.Client) CartesiaOption {
	return func(s *CartesiaService) {
		s.client = client
	}
}

// WithCartesiaModel sets the TTS model.
func WithCartesiaModel(model string) CartesiaOption {
	return func(s *CartesiaService) {
		s.model = model
	}
}

// NewCartesia creates a Cartesia TTS service.
func NewCartesia(apiKey string, opts ...CartesiaOption) *CartesiaService {
	s := &CartesiaService{
		apiKey:  apiKey,
		baseURL: cartesiaBaseURL,
		wsURL:   cartesiaWSURL,
		client:  newHTTPClient(defaultCartesiaTimeout),
		model:   CartesiaModelSonic2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider identifier.
func (s *CartesiaService) Name() string {
	return "cartesia"
}

// cartesiaRequest is the request body for Cartesia TTS API.
type cartesiaRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceConfig  `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     string               `json:"language,omitempty"`
}

type cartesiaVoiceConfig struct {
	Mode string `json:"mode"`
	ID   string `json:"id,omitempty"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// Synthesize converts text to audio using Cartesia's REST API.
// For streaming output, use SynthesizeStream instead.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *CartesiaService) Synthesize(
	ctx context.Context, text string, config SynthesisConfig,
) (io.ReadCloser, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	// Use config voice or default
	voice := config.Voice
	if voice == "" {
		voice = cartesiaDefaultVoice
	}

	// Use config model or service default
	model := config.Model
	if model == "" {
		model = s.model
	}

	outputFormat := s.mapFormat(config.Format)

	reqBody := cartesiaRequest{
		ModelID:    model,
		Transcript: text,
		Voice: cartesiaVoiceConfig{
			Mode: "id",
			ID:   voice,
		},
		OutputFormat: outputFormat,
		Language:     config.Language,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+cartesiaRESTURL,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cartesia-Version", cartesiaAPIVersion)

	logger.APIRequest("cartesia", http.MethodPost, s.baseURL+cartesiaRESTURL, nil, reqBody)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.APIResponse("cartesia", 0, "", err)
		return nil, NewSynthesisError("cartesia", "", "request failed", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, s.handleError(resp)
	}

	logger.APIResponse("cartesia", resp.StatusCode, "", nil)
	return resp.Body, nil
}

// cartesiaWSResponse represents a WebSocket response from Cartesia.
type cartesiaWSResponse struct {
	StatusCode int    `json:"status_code"`
	Done       bool   `json:"done"`
	Type       string `json:"type"`
	Data       string `json:"data"` // Base64-encoded audio
	Error      string `json:"error,omitempty"`
}

// processWSResponse processes a single WebSocket response and returns the audio chunk.
// Returns nil chunk if the response doesn't contain audio data.
// Returns error if processing fails or response contains an error.
func (s *CartesiaService) processWSResponse(
	resp *cartesiaWSResponse, index int,
) (*AudioChunk, error) {
	if resp.Error != "" {
		return nil, NewSynthesisError("cartesia", "", resp.Error, nil, false)
	}

	if resp.Type != "chunk" || resp.Data == "" {
		return nil, nil
	}

	audioData, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, err
	}

	return &AudioChunk{
		Data:  audioData,
		Index: index,
		Final: resp.Done,
	}, nil
}

// mapFormat converts AudioFormat to Cartesia format config.
// WAV with float PCM at 44.1kHz is the default container.
func (s *CartesiaService) mapFormat(format AudioFormat) cartesiaOutputFormat {
	switch format.Name {
	case formatMP3:
		return cartesiaOutputFormat{
			Container:  formatMP3,
			Encoding:   formatMP3,
			SampleRate: sampleRate44100,
		}
	case formatPCM:
		return cartesiaOutputFormat{
			Container:  "raw",
			Encoding:   "pcm_f32le",
			SampleRate: sampleRate44100,
		}
	default:
		// Default to WAV (also handles formatWAV explicitly)
		return cartesiaOutputFormat{
			Container:  formatWAV,
			Encoding:   "pcm_f32le",
			SampleRate: sampleRate44100,
		}
	}
}

// cartesiaErrorResponse represents an error response from Cartesia.
type cartesiaErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleError processes an error response from Cartesia.
func (s *CartesiaService) handleError(resp *http.Response) error {
	var errResp cartesiaErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return NewSynthesisError(
			"cartesia",
			fmt.Sprintf("%d", resp.StatusCode),
			"unknown error",
			err,
			resp.StatusCode >= serverErrorThreshold,
		)
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= serverErrorThreshold

	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	case http.StatusUnauthorized:
		cause = fmt.Errorf("invalid API key")
	case http.StatusBadRequest:
		cause = fmt.Errorf("bad request")
	case http.StatusNotFound:
		cause = ErrInvalidVoice
	}

	message := errResp.Message
	if message == "" {
		message = errResp.Error
	}

	logger.APIResponse("cartesia", resp.StatusCode, message, nil)

	return NewSynthesisError(
		"cartesia",
		errResp.Error,
		message,
		cause,
		retryable,
	)
}

// SupportedVoices returns a sample of available Cartesia voices.
func (s *CartesiaService) SupportedVoices() []Voice {
	return []Voice{
		{
			ID:          cartesiaDefaultVoice,
			Name:        "Default",
			Language:    "en",
			Gender:      "neutral",
			Description: "Cartesia documentation default voice",
		},
		{
			ID:          "a0e99841-438c-4a64-b679-ae501e7d6091",
			Name:        "Barbershop Man",
			Language:    "en",
			Gender:      "male",
			Description: "Deep, warm male voice",
		},
		{
			ID:          "156fb8d2-335b-4950-9cb3-a2d33befec77",
			Name:        "British Lady",
			Language:    "en",
			Gender:      "female",
			Description: "British accent, professional",
		},
		{
			ID:          "79a125e8-cd45-4c13-8a67-188112f4dd22",
			Name:        "California Girl",
			Language:    "en",
			Gender:      "female",
			Description: "Casual, friendly American",
		},
		{
			ID:          "bf991597-6c13-47e4-8411-91ec2de5c466",
			Name:        "Confident Man",
			Language:    "en",
			Gender:      "male",
			Description: "Clear, confident delivery",
		},
	}
}

// SupportedModels returns the Cartesia model identifiers, including dated snapshots.
func (s *CartesiaService) SupportedModels() []string {
	return []string{
		CartesiaModelSonic2,
		CartesiaModelSonicTurbo,
		CartesiaModelSonic,
		CartesiaModelSonic2_20250416,
		CartesiaModelSonic2_20250307,
		CartesiaModelSonicTurbo20250307,
		CartesiaModelSonic20241212,
		CartesiaModelSonic20241019,
	}
}

// SupportedLanguages returns the language codes Cartesia accepts.
func (s *CartesiaService) SupportedLanguages() []string {
	out := make([]string, len(cartesiaLanguages))
	copy(out, cartesiaLanguages)
	return out
}

// SupportedFormats returns audio formats supported by Cartesia.
func (s *CartesiaService) SupportedFormats() []AudioFormat {
	return []AudioFormat{
		{
			Name:       formatWAV,
			MIMEType:   "audio/wav",
			SampleRate: sampleRate44100,
			BitDepth:   32,
			Channels:   1,
		},
		{
			Name:       formatPCM,
			MIMEType:   "audio/pcm",
			SampleRate: sampleRate44100,
			BitDepth:   32,
			Channels:   1,
		},
		{
			Name:       formatMP3,
			MIMEType:   "audio/mpeg",
			SampleRate: sampleRate44100,
			BitDepth:   0,
			Channels:   1,
		},
	}
}
