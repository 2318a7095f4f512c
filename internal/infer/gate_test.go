package infer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewGateRejectsInvalidCapacity(t *testing.T) {
	_, err := NewGate(0)
	require.Error(t, err)

	_, err = NewGate(-1)
	require.Error(t, err)
}

func TestGateBoundsConcurrency(t *testing.T) {
	const capacity = 3
	gate, err := NewGate(capacity)
	require.NoError(t, err)

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := gate.Acquire(context.Background())
			require.NoError(t, err)
			defer release()

			n := inFlight.Add(1)
			for {
				current := peak.Load()
				if n <= current || peak.CompareAndSwap(current, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int64(capacity))
	require.Equal(t, int64(0), inFlight.Load())
	require.Equal(t, 0, gate.InFlight())
}

func TestGateAcquireHonorsContext(t *testing.T) {
	gate, err := NewGate(1)
	require.NoError(t, err)

	release, err := gate.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = gate.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := gate.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}
