package infer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRateLimiterRejectsInvalidConfig(t *testing.T) {
	_, err := NewRateLimiter(0, time.Second)
	require.Error(t, err)

	_, err = NewRateLimiter(5, 0)
	require.Error(t, err)

	_, err = NewRateLimiter(5, -time.Second)
	require.Error(t, err)
}

func TestRateLimiterAdmitsUnderLimit(t *testing.T) {
	limiter, err := NewRateLimiter(3, time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	require.Equal(t, 3, limiter.Admitted())
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	// Virtual clock so the window math is deterministic.
	now := time.Unix(0, 0)
	var slept []time.Duration
	limiter, err := NewRateLimiter(3, 10*time.Second)
	require.NoError(t, err)
	limiter.clock = func() time.Time { return now }
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}

	// Calls 4 and 5 must each wait out the remainder of the window relative
	// to the oldest retained call.
	require.NotEmpty(t, slept)
	require.GreaterOrEqual(t, slept[0], 10*time.Second)
	require.True(t, now.Sub(time.Unix(0, 0)) >= 10*time.Second,
		"five instantaneous acquires against max_calls=3 must span at least one full period")
}

func TestRateLimiterWallClockElapsed(t *testing.T) {
	limiter, err := NewRateLimiter(3, 150*time.Millisecond)
	require.NoError(t, err)

	ctx := context.Background()
	started := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	require.GreaterOrEqual(t, time.Since(started), 150*time.Millisecond)
}

func TestRateLimiterAcquireHonorsContext(t *testing.T) {
	limiter, err := NewRateLimiter(1, time.Hour)
	require.NoError(t, err)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterConcurrentAcquire(t *testing.T) {
	limiter, err := NewRateLimiter(50, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, limiter.Acquire(context.Background()))
		}()
	}
	wg.Wait()
	require.Equal(t, 20, limiter.Admitted())
}
