package workflow

import (
	"errors"
	"fmt"
	"log/slog"

	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

// ErrStepNotAllowed reports a jump the wizard does not permit.
var ErrStepNotAllowed = fmt.Errorf("%w: step not allowed", services.ErrValidation)

// Controller drives step transitions for one job.
type Controller struct {
	jobID  string
	state  *State
	logger *slog.Logger
}

// NewController builds a controller for jobID starting from initial.
func NewController(jobID string, initial order.WorkflowState, logger *slog.Logger) *Controller {
	return &Controller{
		jobID:  jobID,
		state:  NewState(initial),
		logger: logging.NewComponentLogger(logger, "workflow").With(logging.String(logging.FieldJobID, jobID)),
	}
}

// State exposes the shared state for components that only read the lock flag.
func (c *Controller) State() *State {
	return c.state
}

// Step returns the current step.
func (c *Controller) Step() order.Step {
	return c.state.Step()
}

// Locked reports whether the job is locked.
func (c *Controller) Locked() bool {
	return c.state.Locked()
}

// Snapshot returns a copy of the workflow state.
func (c *Controller) Snapshot() order.WorkflowState {
	return c.state.Snapshot()
}

// AdvanceStep moves one step forward. It reports whether the step changed;
// a locked job or the final step leaves the state untouched.
func (c *Controller) AdvanceStep() bool {
	var from, to order.Step
	moved := false
	c.state.update(func(s *State) {
		if s.step >= order.LastStep {
			return
		}
		from = s.step
		s.step++
		to = s.step
		moved = true
	})
	if moved {
		c.logger.Debug("step advanced", logging.Int("from", int(from)), logging.Int(logging.FieldStep, int(to)))
	}
	return moved
}

// JumpToStep moves directly to step n. Any earlier step is allowed, as is the
// immediately following one; everything else returns ErrStepNotAllowed. A
// locked job ignores the call.
func (c *Controller) JumpToStep(n order.Step) error {
	var err error
	var from order.Step
	applied := c.state.update(func(s *State) {
		from = s.step
		switch {
		case !n.Valid():
			err = fmt.Errorf("%w: step %d out of range", ErrStepNotAllowed, n)
		case n < s.step, n == s.step+1:
			s.step = n
		default:
			err = fmt.Errorf("%w: from %d to %d", ErrStepNotAllowed, s.step, n)
		}
	})
	if !applied {
		return nil
	}
	if err != nil {
		c.logger.Debug("step jump rejected", logging.Int("from", int(from)), logging.Int("target", int(n)))
		return err
	}
	c.logger.Debug("step jumped", logging.Int("from", int(from)), logging.Int(logging.FieldStep, int(n)))
	return nil
}

// RedirectToStep forces the wizard onto step n regardless of the usual jump
// rules. The lock gate uses it to send the user back to room assignment.
func (c *Controller) RedirectToStep(n order.Step) error {
	if !n.Valid() {
		return fmt.Errorf("%w: step %d out of range", ErrStepNotAllowed, n)
	}
	if c.state.update(func(s *State) { s.step = n }) {
		c.logger.Info("redirected", logging.Int(logging.FieldStep, int(n)))
	}
	return nil
}

// MarkLocked sets the absorbing locked state. Calling it again is a no-op.
func (c *Controller) MarkLocked() {
	if c.state.update(func(s *State) {
		s.locked = true
		s.step = order.LastStep
	}) {
		c.logger.Info("job locked")
	}
}

// IsStepNotAllowed reports whether err is a rejected step transition.
func IsStepNotAllowed(err error) bool {
	return errors.Is(err, ErrStepNotAllowed)
}
