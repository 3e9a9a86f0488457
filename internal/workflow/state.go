package workflow

import (
	"sync"

	"lichtwerk/internal/order"
)

// State is the concurrency-safe workflow position of one job. Components
// receive it through their own LockState interfaces and only read it.
type State struct {
	mu     sync.RWMutex
	step   order.Step
	locked bool
}

// NewState seeds a State from a persisted snapshot. A locked job always
// reports the final step; an out-of-range step falls back to the first.
func NewState(initial order.WorkflowState) *State {
	s := &State{step: initial.Step, locked: initial.Locked}
	if !s.step.Valid() {
		s.step = order.FirstStep
	}
	if s.locked {
		s.step = order.LastStep
	}
	return s
}

// Locked reports whether the job has been irreversibly locked.
func (s *State) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

// Step returns the current step.
func (s *State) Step() order.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// Snapshot returns a copy of the current workflow state.
func (s *State) Snapshot() order.WorkflowState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return order.WorkflowState{Step: s.step, Locked: s.locked}
}

// update applies fn under the write lock unless the state is locked. It
// reports whether fn ran.
func (s *State) update(fn func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return false
	}
	fn(s)
	return true
}
