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
	replicateBaseURL             = "https://api.replicate.com"
	replicatePredictionsEndpoint = "/v1/predictions"

	// Default timeout for individual Replicate HTTP requests. The overall
	// prediction has no implicit deadline; cancellation is the caller's
	// context.
	defaultReplicateTimeout = 10 * time.Second

	// defaultReplicatePollInterval is the delay between prediction status polls.
	defaultReplicatePollInterval = time.Second

	// HTTP status code threshold for server errors.
	replicateServerErrorThreshold = 500
)

// Prediction statuses reported by the Replicate API.
const (
	replicateStatusSucceeded = "succeeded"
	replicateStatusFailed    = "failed"
	replicateStatusCanceled  = "canceled"
)

// ReplicateClient drives the Replicate predictions API for hosted TTS models.
// It creates a prediction for a pinned model version, polls until the
// prediction reaches a terminal status, and downloads the output audio.
// Polling a single prediction is not a retry; each Predict call invokes the
// model exactly once.
type ReplicateClient struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
}

// ReplicateOption configures the Replicate client.
type ReplicateOption func(*ReplicateClient)

// WithReplicateBaseURL sets a custom base URL.
func WithReplicateBaseURL(url string) ReplicateOption {
	return func(c *ReplicateClient) {
		c.baseURL = url
	}
}

// WithReplicateClient sets a custom HTTP client.
func WithReplicateClient(client *http.Client) ReplicateOption {
	return func(c *ReplicateClient) {
		c.client = client
	}
}

// WithReplicatePollInterval sets the delay between status polls.
func WithReplicatePollInterval(d time.Duration) ReplicateOption {
	return func(c *ReplicateClient) {
		c.pollInterval = d
	}
}

// NewReplicate creates a Replicate predictions client.
func NewReplicate(apiKey string, opts ...ReplicateOption) *ReplicateClient {
	c := &ReplicateClient{
		apiKey:       apiKey,
		baseURL:      replicateBaseURL,
		client:       newHTTPClient(defaultReplicateTimeout),
		pollInterval: defaultReplicatePollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// replicatePredictionRequest creates a prediction for a model version.
type replicatePredictionRequest struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
}

// replicatePrediction is the prediction resource returned by the API.
// Output is a URL string for the TTS models this package pins.
type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Predict runs the pinned model version with the given input and returns the
// output audio bytes. The provider name is used for error attribution.
func (c *ReplicateClient) Predict(
	ctx context.Context, provider, version string, input map[string]interface{},
) ([]byte, error) {
	prediction, err := c.createPrediction(ctx, provider, version, input)
	if err != nil {
		return nil, err
	}

	prediction, err = c.waitForPrediction(ctx, provider, prediction)
	if err != nil {
		return nil, err
	}

	outputURL, err := decodeOutputURL(prediction.Output)
	if err != nil {
		return nil, NewSynthesisError(provider, "", "unexpected prediction output", err, false)
	}

	return c.download(ctx, provider, outputURL)
}

// createPrediction starts a prediction and returns the initial resource.
func (c *ReplicateClient) createPrediction(
	ctx context.Context, provider, version string, input map[string]interface{},
) (*replicatePrediction, error) {
	reqBody := replicatePredictionRequest{
		Version: version,
		Input:   input,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+replicatePredictionsEndpoint,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	logger.APIRequest(provider, http.MethodPost, c.baseURL+replicatePredictionsEndpoint, nil, reqBody)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.APIResponse(provider, 0, "", err)
		return nil, NewSynthesisError(provider, "", "request failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.handleError(provider, resp)
	}

	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, NewSynthesisError(provider, "", "malformed response", err, false)
	}
	return &prediction, nil
}

// waitForPrediction polls until the prediction reaches a terminal status.
// There is no implicit deadline: a hung prediction blocks until the caller's
// context is cancelled.
func (c *ReplicateClient) waitForPrediction(
	ctx context.Context, provider string, prediction *replicatePrediction,
) (*replicatePrediction, error) {
	for {
		switch prediction.Status {
		case replicateStatusSucceeded:
			return prediction, nil
		case replicateStatusFailed, replicateStatusCanceled:
			return nil, NewSynthesisError(
				provider,
				prediction.Status,
				fmt.Sprintf("prediction %s: %s", prediction.Status, prediction.Error),
				ErrSynthesisFailed,
				false,
			)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		var err error
		prediction, err = c.getPrediction(ctx, provider, prediction.ID)
		if err != nil {
			return nil, err
		}
	}
}

// getPrediction fetches the current prediction resource.
func (c *ReplicateClient) getPrediction(
	ctx context.Context, provider, id string,
) (*replicatePrediction, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+replicatePredictionsEndpoint+"/"+id,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewSynthesisError(provider, "", "status poll failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleError(provider, resp)
	}

	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, NewSynthesisError(provider, "", "malformed response", err, false)
	}
	return &prediction, nil
}

// download fetches the prediction's output file.
func (c *ReplicateClient) download(ctx context.Context, provider, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewSynthesisError(provider, "", "output download failed", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewSynthesisError(
			provider,
			fmt.Sprintf("%d", resp.StatusCode),
			"output download failed",
			nil,
			resp.StatusCode >= replicateServerErrorThreshold,
		)
	}

	return io.ReadAll(resp.Body)
}

// decodeOutputURL extracts the output file URL from a prediction output.
// TTS models return either a single URL string or a list with one URL.
func decodeOutputURL(output json.RawMessage) (string, error) {
	if len(output) == 0 {
		return "", fmt.Errorf("prediction has no output")
	}

	var url string
	if err := json.Unmarshal(output, &url); err == nil && url != "" {
		return url, nil
	}

	var urls []string
	if err := json.Unmarshal(output, &urls); err == nil && len(urls) > 0 {
		return urls[0], nil
	}

	return "", fmt.Errorf("unrecognized output shape: %s", string(output))
}

// replicateErrorResponse represents an error response from Replicate.
type replicateErrorResponse struct {
	Detail string `json:"detail"`
}

// handleError processes an error response from Replicate.
func (c *ReplicateClient) handleError(provider string, resp *http.Response) error {
	var errResp replicateErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return NewSynthesisError(
			provider,
			fmt.Sprintf("%d", resp.StatusCode),
			"unknown error",
			err,
			resp.StatusCode >= replicateServerErrorThreshold,
		)
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= replicateServerErrorThreshold

	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = ErrRateLimited
	case http.StatusUnauthorized:
		cause = fmt.Errorf("invalid API token")
	case http.StatusPaymentRequired:
		cause = ErrQuotaExceeded
	}

	logger.APIResponse(provider, resp.StatusCode, errResp.Detail, nil)

	return NewSynthesisError(
		provider,
		fmt.Sprintf("%d", resp.StatusCode),
		errResp.Detail,
		cause,
		retryable,
	)
}
