// Package sessions tracks live stream sessions so server shutdown can drain
// them: stop accepting, wait a bounded time, then cancel what remains. The
// tracker is injected where it is needed; there is no process-wide singleton.
package sessions

import (
	"context"
	"sync"
)

type Tracker struct {
	mu      sync.Mutex
	cancels map[string]func()
	wg      sync.WaitGroup
}

func NewTracker() *Tracker {
	return &Tracker{cancels: make(map[string]func())}
}

// Register adds a running session; cancel force-stops it. The returned
// function removes the session and is safe to call more than once.
func (t *Tracker) Register(sessionID string, cancel func()) (unregister func()) {
	if t == nil {
		return func() {}
	}

	t.mu.Lock()
	if t.cancels == nil {
		t.cancels = make(map[string]func())
	}
	t.cancels[sessionID] = cancel
	t.wg.Add(1)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.cancels, sessionID)
			t.mu.Unlock()
			t.wg.Done()
		})
	}
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cancels)
}

// CancelAll force-stops every tracked session and reports how many were
// signaled.
func (t *Tracker) CancelAll() int {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	cancels := make([]func(), 0, len(t.cancels))
	for _, cancel := range t.cancels {
		if cancel != nil {
			cancels = append(cancels, cancel)
		}
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Wait blocks until every tracked session has unregistered or ctx expires,
// reporting whether the drain completed.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	if ctx == nil {
		<-done
		return true
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
