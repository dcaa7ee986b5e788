package stream

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many worker bodies may execute at once. The downstream
// speech pipeline may not tolerate concurrent invocation beyond its own
// capacity, so this cap is separate from (and smaller than) the pending
// worker bound enforced at admission.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate(limit int) *Gate {
	if limit <= 0 {
		limit = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// Acquire blocks until a permit is available or ctx is canceled.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) Release() {
	g.sem.Release(1)
}
