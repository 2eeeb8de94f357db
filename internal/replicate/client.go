// Package replicate drives asynchronous prediction jobs on the
// Replicate API: submit, poll until terminal, bounded by a wall clock.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Error messages double as the user-facing reason text, so they stay
// close to plain English rather than Go convention.
var (
	ErrRateLimited         = errors.New("Rate limit exceeded, please try again later")
	ErrMissingPredictionID = errors.New("Failed to get prediction ID")
	ErrTimedOut            = errors.New("Image generation timed out")
)

type SubmissionError struct {
	Status int
	Body   string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("Replicate API error: %d - %s", e.Status, e.Body)
}

type PollError struct {
	Status int
}

func (e *PollError) Error() string {
	return fmt.Sprintf("Status check error: %d", e.Status)
}

type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("Image generation failed: %s", e.Reason)
}

type NetworkTimeoutError struct {
	Err error
}

func (e *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("Replicate API timeout: %v", e.Err)
}

func (e *NetworkTimeoutError) Unwrap() error { return e.Err }

type Options struct {
	Token        string
	BaseURL      string
	Version      string
	PollInterval time.Duration
	MaxWait      time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

type Client struct {
	token        string
	baseURL      string
	version      string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com"
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = 120 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		token:        opts.Token,
		baseURL:      baseURL,
		version:      opts.Version,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		httpClient:   opts.HTTPClient,
		logger:       logger,
	}
}

type prediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

type createRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

// Generate submits prompt as a prediction and polls it to a terminal
// state. The wall clock is measured from submission, not from the last
// poll. All failures come back as classified errors, never panics.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.httpClient == nil {
		return "", errors.New("http client is nil")
	}

	start := time.Now()

	pred, err := c.submit(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.logger.Info("prediction submitted", "id", pred.ID)

	for time.Since(start) < c.maxWait {
		pred, err = c.poll(ctx, pred.ID)
		if err != nil {
			return "", err
		}

		switch pred.Status {
		case "succeeded", "failed", "canceled":
			return c.finish(pred)
		}

		select {
		case <-ctx.Done():
			return "", classify(ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}

	c.logger.Error("prediction did not finish in time", "id", pred.ID)
	return "", ErrTimedOut
}

func (c *Client) submit(ctx context.Context, prompt string) (prediction, error) {
	payload, err := json.Marshal(createRequest{
		Version: c.version,
		Input:   map[string]any{"prompt": prompt},
	})
	if err != nil {
		return prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(payload))
	if err != nil {
		return prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return prediction{}, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return prediction{}, classify(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Error("replicate rate limit exceeded")
		return prediction{}, ErrRateLimited
	}
	if resp.StatusCode != http.StatusCreated {
		c.logger.Error("replicate submission failed", "status", resp.StatusCode)
		return prediction{}, &SubmissionError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var pred prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return prediction{}, fmt.Errorf("decode response: %w", err)
	}
	if pred.ID == "" {
		return prediction{}, ErrMissingPredictionID
	}
	return pred, nil
}

func (c *Client) poll(ctx context.Context, id string) (prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/predictions/"+id, nil)
	if err != nil {
		return prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return prediction{}, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return prediction{}, classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("replicate status check failed", "id", id, "status", resp.StatusCode)
		return prediction{}, &PollError{Status: resp.StatusCode}
	}

	var pred prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return prediction{}, fmt.Errorf("decode response: %w", err)
	}
	pred.ID = id
	return pred, nil
}

func (c *Client) finish(pred prediction) (string, error) {
	if pred.Status == "succeeded" && len(pred.Output) > 0 {
		return pred.Output[0], nil
	}

	reason := pred.Error
	if reason == "" {
		reason = "Unknown error"
	}
	c.logger.Error("prediction failed", "id", pred.ID, "status", pred.Status, "reason", reason)
	return "", &GenerationError{Reason: reason}
}

// classify separates transport-level timeouts from everything else.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &NetworkTimeoutError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkTimeoutError{Err: err}
	}
	return fmt.Errorf("request: %w", err)
}
