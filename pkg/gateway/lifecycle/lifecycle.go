// Package lifecycle holds process lifecycle state shared across handlers.
// Readiness flips to draining during graceful shutdown so load balancers stop
// routing new streams while live sessions finish.
package lifecycle

import "sync/atomic"

type State struct {
	draining atomic.Bool
}

func (s *State) SetDraining(draining bool) {
	if s == nil {
		return
	}
	s.draining.Store(draining)
}

func (s *State) Draining() bool {
	if s == nil {
		return false
	}
	return s.draining.Load()
}
