// Package driver defines the interface for LLM completion providers.
package driver

import "context"

// Driver defines the interface for completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "azure").
	Name() string
}

// BatchDriver is implemented by providers with native multi-prompt
// submission endpoints.
type BatchDriver interface {
	Driver
	// CompleteBatch resolves several requests in one provider call.
	// Responses match request order.
	CompleteBatch(ctx context.Context, reqs []*Request) ([]*Response, error)
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the expected response shape.
type ResponseFormat struct {
	Type string `json:"type"` // "text", "json_object"
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model          string
	Messages       []Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      string
	FinishReason string
	Usage        *Usage
}
