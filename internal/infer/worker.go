package infer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"
)

// Invoker performs one backend call for one prompt.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, structured bool) (string, error)
}

// BatchInvoker performs one backend call for several prompts at once, for
// providers with native multi-prompt endpoints. Results match prompt order.
type BatchInvoker interface {
	Invoker
	InvokeBatch(ctx context.Context, prompts []string, structured bool) ([]string, error)
}

// Cache is the response cache collaborator consulted before admission and
// populated on success. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// CacheKey derives the cache key for a prompt routed to a backend.
func CacheKey(backend, prompt string, structured bool) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	if structured {
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// worker executes single prompts under the admission pair for one backend.
type worker struct {
	backend  string
	invoker  Invoker
	gate     *Gate
	limiter  *RateLimiter
	cache    Cache
	progress *Progress
	logger   *zap.Logger
}

// call resolves one prompt to its result text. Any per-call failure resolves
// to the NoResponse sentinel; failures never propagate to sibling prompts.
func (w *worker) call(ctx context.Context, prompt string, structured bool) string {
	defer w.progress.Done()

	key := CacheKey(w.backend, prompt, structured)
	if w.cache != nil {
		if cached, ok, err := w.cache.Get(ctx, key); err == nil && ok {
			return cached
		}
	}

	release, err := w.gate.Acquire(ctx)
	if err != nil {
		w.logger.Warn("admission interrupted", zap.String("backend", w.backend), zap.Error(err))
		return NoResponse
	}
	defer release()

	if err := w.limiter.Acquire(ctx); err != nil {
		w.logger.Warn("rate limit wait interrupted", zap.String("backend", w.backend), zap.Error(err))
		return NoResponse
	}

	text, err := w.invoker.Invoke(ctx, prompt, structured)
	if err != nil {
		if IsContentFiltered(err) {
			w.logger.Warn("content filter triggered", zap.String("backend", w.backend), zap.String("prompt", truncatePrompt(prompt)))
		} else {
			w.logger.Warn("prompt failed", zap.String("backend", w.backend), zap.String("prompt", truncatePrompt(prompt)), zap.Error(err))
		}
		return NoResponse
	}

	if w.cache != nil {
		if err := w.cache.Put(ctx, key, text); err != nil {
			w.logger.Debug("response cache write failed", zap.Error(err))
		}
	}
	return text
}

func truncatePrompt(prompt string) string {
	const limit = 200
	if len(prompt) <= limit {
		return prompt
	}
	return prompt[:limit] + "..."
}
