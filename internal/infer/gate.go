package infer

import (
	"context"
	"fmt"
)

// Gate bounds how many callers may be inside a guarded region at once.
// Acquire returns a release closure that must be called exactly once on
// every exit path. Fairness is not guaranteed, only the capacity bound.
type Gate struct {
	sem chan struct{}
}

// NewGate builds a gate with a fixed capacity. Capacity must be positive.
func NewGate(capacity int) (*Gate, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("gate capacity must be positive, got %d", capacity)
	}
	return &Gate{sem: make(chan struct{}, capacity)}, nil
}

// Acquire blocks until a slot is free or the context ends.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	select {
	case g.sem <- struct{}{}:
		return func() { <-g.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Capacity returns the configured slot count.
func (g *Gate) Capacity() int {
	return cap(g.sem)
}

// InFlight reports how many slots are currently held.
func (g *Gate) InFlight() int {
	return len(g.sem)
}
