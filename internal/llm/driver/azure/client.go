// Package azure implements the Azure OpenAI driver. It speaks the same
// chat-completions shape as OpenAI but addresses deployments and
// authenticates with an api-key header.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rulebench/rulebench/internal/llm/driver"
)

const defaultAPIVersion = "2024-02-15-preview"

// Client implements the Azure OpenAI driver.
type Client struct {
	// BaseURL is the resource endpoint, e.g. https://myresource.openai.azure.com.
	BaseURL    string
	APIKey     string
	APIVersion string
	HTTPClient *http.Client
	Timeout    time.Duration

	// MaxRetries bounds transport-level retries on 429/5xx/network errors.
	// Content-filter rejections are 400s and are never retried.
	MaxRetries int

	backoff func(attempt int) time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiKey, apiVersion string) *Client {
	version := strings.TrimSpace(apiVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	return &Client{
		BaseURL:    strings.TrimSpace(baseURL),
		APIKey:     strings.TrimSpace(apiKey),
		APIVersion: version,
		backoff:    defaultBackoff,
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "azure"
}

// Complete sends a chat completion request to the model's deployment.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("azure client not configured")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	payload, err := buildChatRequest(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	respBody, err := c.post(ctx, c.completionsURL(req.Model), body)
	if err != nil {
		return nil, err
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return toDriverResponse(&parsed)
}

// CompleteBatch resolves the requests in order, failing fast on the first
// error. The dispatcher uses that chunk-level failure to degrade to
// per-prompt retries, so a poisoned prompt cannot fail its siblings for good.
func (c *Client) CompleteBatch(ctx context.Context, reqs []*driver.Request) ([]*driver.Response, error) {
	responses := make([]*driver.Response, 0, len(reqs))
	for _, req := range reqs {
		resp, err := c.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (c *Client) completionsURL(deployment string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		base, url.PathEscape(deployment), url.QueryEscape(c.APIVersion))
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	client := c.HTTPClient
	if client == nil {
		client = driver.NewHTTPClient(c.Timeout)
	}

	backoff := c.backoff
	if backoff == nil {
		backoff = defaultBackoff
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		respBody, err := c.exchange(ctx, client, endpoint, body)
		if err == nil {
			return respBody, nil
		}
		lastErr = err

		var perr *driver.ProviderError
		if errors.As(err, &perr) && !perr.Retryable() {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) exchange(ctx context.Context, client *http.Client, endpoint string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("api-key", c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

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
	return respBody, nil
}

func defaultBackoff(attempt int) time.Duration {
	d := time.Second << (attempt - 1)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
