package pagination

import (
	"context"
	"sync/atomic"
)

// Counter hands out page numbers. Implementations must never return the same
// number twice within a run.
type Counter interface {
	// ClaimNext returns the next unclaimed page number, starting at 1.
	ClaimNext(ctx context.Context) (int, error)
}

// AtomicCounter is an in-process Counter.
type AtomicCounter struct {
	last atomic.Int64
}

// NewCounter creates a counter whose first claim returns 1.
func NewCounter() *AtomicCounter {
	return &AtomicCounter{}
}

// ClaimNext atomically increments the counter and returns the new value.
// It never fails.
func (c *AtomicCounter) ClaimNext(_ context.Context) (int, error) {
	return int(c.last.Add(1)), nil
}

// Claimed returns how many page numbers have been handed out so far.
func (c *AtomicCounter) Claimed() int {
	return int(c.last.Load())
}
