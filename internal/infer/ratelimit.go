package infer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter admits at most MaxCalls calls within any trailing window of
// Period. It is a sliding-window limiter: admissions are counted relative to
// the oldest retained call, not reset at fixed boundaries, so bursts are
// smoothed instead of doubling up around a window edge.
type RateLimiter struct {
	maxCalls int
	period   time.Duration

	mu    sync.Mutex
	calls []time.Time

	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter validates the limit parameters. Non-positive values are a
// configuration error and fail construction.
func NewRateLimiter(maxCalls int, period time.Duration) (*RateLimiter, error) {
	if maxCalls <= 0 {
		return nil, fmt.Errorf("rate limiter max calls must be positive, got %d", maxCalls)
	}
	if period <= 0 {
		return nil, fmt.Errorf("rate limiter period must be positive, got %s", period)
	}
	return &RateLimiter{
		maxCalls: maxCalls,
		period:   period,
		clock:    time.Now,
		sleep:    sleepContext,
	}, nil
}

// Acquire suspends the caller until admitting one more call keeps the
// trailing-window count at or below the limit, then records the admission.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.clock()
		r.prune(now)
		if len(r.calls) < r.maxCalls {
			r.calls = append(r.calls, now)
			r.mu.Unlock()
			return nil
		}
		wait := r.period - now.Sub(r.calls[0])
		r.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Admitted reports the number of calls currently inside the window.
func (r *RateLimiter) Admitted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(r.clock())
	return len(r.calls)
}

// prune drops admission records older than the window. Caller holds mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.period)
	idx := 0
	for idx < len(r.calls) && !r.calls[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		r.calls = append(r.calls[:0], r.calls[idx:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
