// Package replicate implements a minimal driver for Replicate-hosted
// text-generation models (used for Llama-class backends): create a
// prediction, then poll until it settles.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rulebench/rulebench/internal/llm/driver"
)

const defaultBaseURL = "https://api.replicate.com/v1"

// Client implements the Replicate driver.
type Client struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
	Timeout    time.Duration

	// PollInterval controls how often a pending prediction is re-checked.
	PollInterval time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiToken string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		BaseURL:      url,
		APIToken:     strings.TrimSpace(apiToken),
		PollInterval: time.Second,
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "replicate"
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

type createPredictionRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
}

// Complete creates a prediction for the prompt and polls until it finishes.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("replicate client not configured")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return nil, fmt.Errorf("api token is required")
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	input := map[string]any{
		"prompt":      flattenPrompt(req.Messages),
		"temperature": 0.0,
		"top_p":       1.0,
	}
	if req.Temperature != nil {
		input["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		input["max_length"] = *req.MaxTokens
	}

	created, err := c.createPrediction(ctx, req.Model, input)
	if err != nil {
		return nil, err
	}

	settled, err := c.waitForPrediction(ctx, created)
	if err != nil {
		return nil, err
	}
	if settled.Status != "succeeded" {
		return nil, &driver.ProviderError{
			Provider: c.Name(),
			Message:  fmt.Sprintf("prediction %s %s: %s", settled.ID, settled.Status, settled.Error),
		}
	}

	return &driver.Response{Content: decodeOutput(settled.Output), FinishReason: "stop"}, nil
}

func (c *Client) createPrediction(ctx context.Context, model string, input map[string]any) (*prediction, error) {
	// Models are addressed either as owner/name (model endpoint) or as a
	// bare version hash.
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/predictions"
	payload := createPredictionRequest{Input: input}
	if strings.Contains(model, "/") {
		endpoint = fmt.Sprintf("%s/models/%s/predictions", strings.TrimRight(c.BaseURL, "/"), model)
	} else {
		payload.Version = model
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, endpoint, body)
}

func (c *Client) waitForPrediction(ctx context.Context, p *prediction) (*prediction, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/predictions/" + p.ID

	current := p
	for current.Status == "starting" || current.Status == "processing" {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		next, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.APIToken)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTPClient
	if client == nil {
		client = driver.NewHTTPClient(c.Timeout)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &driver.ProviderError{
			Provider:    c.Name(),
			StatusCode:  resp.StatusCode,
			Message:     strings.TrimSpace(string(respBody)),
			RawResponse: respBody,
		}
	}

	var parsed prediction
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}

func flattenPrompt(messages []driver.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n\n")
}

// decodeOutput tolerates both string and []string prediction outputs.
func decodeOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var chunks []string
	if err := json.Unmarshal(raw, &chunks); err == nil {
		return strings.Join(chunks, "")
	}
	return string(raw)
}
