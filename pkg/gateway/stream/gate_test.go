package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGate_BoundsConcurrentHolders(t *testing.T) {
	const limit = 5
	g := NewGate(limit)

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer g.Release()

			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Fatalf("peak concurrent holders=%d, want <= %d", p, limit)
	}
}

func TestGate_AcquireHonorsCancellation(t *testing.T) {
	g := NewGate(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.Acquire(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected error from canceled acquire")
		}
	case <-time.After(time.Second):
		t.Fatalf("canceled acquire did not return")
	}
	g.Release()
}

func TestNewGate_FloorsNonPositiveLimit(t *testing.T) {
	g := NewGate(0)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire on floored gate: %v", err)
	}
	g.Release()
}
