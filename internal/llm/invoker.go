package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rulebench/rulebench/internal/llm/driver"
)

// Invoker binds a driver and model into the single-prompt call shape the
// dispatcher consumes. Temperature defaults to 0 so generation is
// deterministic across pipeline reruns.
type Invoker struct {
	Driver      driver.Driver
	Model       string
	Temperature *float64
	MaxTokens   *int
}

// NewInvoker builds an invoker with deterministic sampling defaults.
func NewInvoker(drv driver.Driver, model string) *Invoker {
	zero := 0.0
	return &Invoker{Driver: drv, Model: model, Temperature: &zero}
}

// Invoke resolves one prompt to its completion text.
func (i *Invoker) Invoke(ctx context.Context, prompt string, structured bool) (string, error) {
	if i == nil || i.Driver == nil {
		return "", errors.New("invoker driver not configured")
	}
	resp, err := i.Driver.Complete(ctx, i.request(prompt, structured))
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty provider response")
	}
	return resp.Content, nil
}

// InvokeBatch resolves several prompts through the provider's native batch
// endpoint. It fails if the underlying driver has no batch support.
func (i *Invoker) InvokeBatch(ctx context.Context, prompts []string, structured bool) ([]string, error) {
	if i == nil || i.Driver == nil {
		return nil, errors.New("invoker driver not configured")
	}
	batch, ok := i.Driver.(driver.BatchDriver)
	if !ok {
		return nil, fmt.Errorf("driver %q does not support batch submission", i.Driver.Name())
	}

	reqs := make([]*driver.Request, 0, len(prompts))
	for _, prompt := range prompts {
		reqs = append(reqs, i.request(prompt, structured))
	}
	resps, err := batch.CompleteBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	if len(resps) != len(prompts) {
		return nil, fmt.Errorf("batch returned %d responses for %d prompts", len(resps), len(prompts))
	}

	texts := make([]string, len(resps))
	for idx, resp := range resps {
		if resp == nil {
			return nil, errors.New("empty provider response in batch")
		}
		texts[idx] = resp.Content
	}
	return texts, nil
}

func (i *Invoker) request(prompt string, structured bool) *driver.Request {
	req := &driver.Request{
		Model:       i.Model,
		Messages:    []driver.Message{{Role: "user", Content: prompt}},
		Temperature: i.Temperature,
		MaxTokens:   i.MaxTokens,
	}
	if structured {
		req.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
	}
	return req
}
