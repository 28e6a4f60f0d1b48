// Package inflight rejects duplicate concurrent login submissions.
//
// A key is held from Acquire until the returned release function runs. A
// second Acquire for the same key while it is held fails with ErrInFlight
// instead of waiting.
package inflight

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when the key is already held.
var ErrInFlight = errors.New("operation already in flight")

// Guard hands out exclusive holds on keys.
type Guard interface {
	// Acquire takes the key. The release function is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is a process-local Guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory creates an empty in-process guard.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

// Acquire takes key or returns ErrInFlight.
func (g *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return nil, ErrInFlight
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// Held reports how many keys are currently held.
func (g *Memory) Held() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

// Compile-time check
var _ Guard = (*Memory)(nil)
