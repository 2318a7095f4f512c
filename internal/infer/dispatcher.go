// Package infer dispatches batches of LLM prompts against backend model
// endpoints under per-backend admission control: a concurrency gate bounding
// parallelism layered over a sliding-window rate limiter.
package infer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Profile holds the admission settings for one backend identity.
type Profile struct {
	MaxCalls    int           `mapstructure:"max_calls"`
	Period      time.Duration `mapstructure:"period"`
	Concurrency int           `mapstructure:"concurrency"`
}

// DefaultProfile applies to backend identities without an explicit profile.
var DefaultProfile = Profile{MaxCalls: 10000, Period: time.Minute, Concurrency: 25}

// Dispatcher fans prompts out to workers and fans ordered results back in.
// Each backend identity owns its own gate/limiter pair; distinct identities
// never share admission state.
type Dispatcher struct {
	profiles map[string]Profile
	fallback Profile
	cache    Cache
	logger   *zap.Logger

	mu       sync.Mutex
	backends map[string]*admission
}

type admission struct {
	gate    *Gate
	limiter *RateLimiter
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCache injects the response cache collaborator.
func WithCache(cache Cache) Option {
	return func(d *Dispatcher) { d.cache = cache }
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithFallback overrides the profile applied to backend identities that
// have no explicit entry. Zero-valued fields keep their defaults.
func WithFallback(p Profile) Option {
	return func(d *Dispatcher) {
		if p.MaxCalls > 0 {
			d.fallback.MaxCalls = p.MaxCalls
		}
		if p.Period > 0 {
			d.fallback.Period = p.Period
		}
		if p.Concurrency > 0 {
			d.fallback.Concurrency = p.Concurrency
		}
	}
}

// NewDispatcher validates every profile up front. Invalid admission
// parameters are configuration errors and fail construction; nothing is
// validated again at dispatch time.
func NewDispatcher(profiles map[string]Profile, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		profiles: make(map[string]Profile, len(profiles)),
		fallback: DefaultProfile,
		logger:   zap.NewNop(),
		backends: make(map[string]*admission),
	}
	for _, opt := range opts {
		opt(d)
	}

	for backend, profile := range profiles {
		if err := validateProfile(profile); err != nil {
			return nil, fmt.Errorf("backend %q: %w", backend, err)
		}
		d.profiles[backend] = profile
	}
	if err := validateProfile(d.fallback); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}
	return d, nil
}

func validateProfile(p Profile) error {
	if p.MaxCalls <= 0 {
		return fmt.Errorf("max_calls must be positive, got %d", p.MaxCalls)
	}
	if p.Period <= 0 {
		return fmt.Errorf("period must be positive, got %s", p.Period)
	}
	if p.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", p.Concurrency)
	}
	return nil
}

// ProfileFor returns the effective profile for a backend identity.
func (d *Dispatcher) ProfileFor(backend string) Profile {
	if profile, ok := d.profiles[backend]; ok {
		return profile
	}
	return d.fallback
}

// Run resolves every prompt against the backend and returns results matching
// the input length and order exactly. One task is launched per prompt; the
// effective parallelism is governed entirely by the backend's gate and
// limiter, not by a batch size. Per-prompt failures yield the NoResponse
// sentinel in place and never abort sibling prompts.
func (d *Dispatcher) Run(ctx context.Context, inv Invoker, backend string, prompts []string, structured bool) ([]string, error) {
	if inv == nil {
		return nil, errors.New("invoker is required")
	}
	if len(prompts) == 0 {
		return nil, nil
	}

	adm := d.admissionFor(backend)
	progress := newProgress(len(prompts), d.logger)
	w := &worker{
		backend:  backend,
		invoker:  inv,
		gate:     adm.gate,
		limiter:  adm.limiter,
		cache:    d.cache,
		progress: progress,
		logger:   d.logger,
	}

	started := time.Now()
	results := make([]string, len(prompts))
	var wg sync.WaitGroup
	for i, prompt := range prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			results[i] = w.call(ctx, prompt, structured)
		}(i, prompt)
	}
	wg.Wait()

	d.logger.Info("batch dispatched",
		zap.String("backend", backend),
		zap.Int("prompts", len(prompts)),
		zap.Duration("elapsed", time.Since(started)))
	return results, nil
}

// RunBatched submits fixed-size chunks through a native multi-prompt call.
// When a chunk fails, its prompts are retried individually so one poisoned
// prompt cannot fail its siblings; an individual failure yields the sentinel
// for that prompt alone.
func (d *Dispatcher) RunBatched(ctx context.Context, inv BatchInvoker, backend string, prompts []string, structured bool, chunkSize int) ([]string, error) {
	if inv == nil {
		return nil, errors.New("invoker is required")
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if len(prompts) == 0 {
		return nil, nil
	}

	adm := d.admissionFor(backend)
	progress := newProgress(len(prompts), d.logger)
	results := make([]string, 0, len(prompts))

	for start := 0; start < len(prompts); start += chunkSize {
		end := start + chunkSize
		if end > len(prompts) {
			end = len(prompts)
		}
		chunk := prompts[start:end]

		if err := adm.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		chunkResults, err := inv.InvokeBatch(ctx, chunk, structured)
		if err == nil && len(chunkResults) == len(chunk) {
			results = append(results, chunkResults...)
			for range chunk {
				progress.Done()
			}
			continue
		}
		if err != nil && IsContentFiltered(err) {
			d.logger.Warn("chunk triggered content filter, retrying individually",
				zap.String("backend", backend), zap.Int("offset", start))
		} else if err != nil {
			d.logger.Warn("chunk failed, retrying individually",
				zap.String("backend", backend), zap.Int("offset", start), zap.Error(err))
		}

		for _, prompt := range chunk {
			text := d.retrySingle(ctx, inv, adm, backend, prompt, structured)
			results = append(results, text)
			progress.Done()
		}
	}

	return results, nil
}

func (d *Dispatcher) retrySingle(ctx context.Context, inv BatchInvoker, adm *admission, backend, prompt string, structured bool) string {
	if err := adm.limiter.Acquire(ctx); err != nil {
		return NoResponse
	}
	texts, err := inv.InvokeBatch(ctx, []string{prompt}, structured)
	if err != nil || len(texts) != 1 {
		if IsContentFiltered(err) {
			d.logger.Warn("content filter triggered", zap.String("backend", backend), zap.String("prompt", truncatePrompt(prompt)))
		} else {
			d.logger.Warn("prompt failed", zap.String("backend", backend), zap.String("prompt", truncatePrompt(prompt)), zap.Error(err))
		}
		return NoResponse
	}
	return texts[0]
}

// admissionFor returns the gate/limiter pair owned by a backend identity,
// creating it on first use. Profiles were validated at construction, so the
// constructors cannot fail here.
func (d *Dispatcher) admissionFor(backend string) *admission {
	d.mu.Lock()
	defer d.mu.Unlock()
	if adm, ok := d.backends[backend]; ok {
		return adm
	}

	// Profiles are validated at construction, so these cannot fail.
	profile := d.ProfileFor(backend)
	gate, _ := NewGate(profile.Concurrency)
	limiter, _ := NewRateLimiter(profile.MaxCalls, profile.Period)

	adm := &admission{gate: gate, limiter: limiter}
	d.backends[backend] = adm
	return adm
}
