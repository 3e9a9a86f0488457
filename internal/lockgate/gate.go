package lockgate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/directives"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/tour"
)

// Controller is the part of the workflow controller the gate drives.
type Controller interface {
	Locked() bool
	RedirectToStep(order.Step) error
	MarkLocked()
}

// Committer applies the lock payload atomically.
type Committer interface {
	Commit(ctx context.Context, jobID string, req backend.CommitRequest) (backend.CommitResult, error)
}

// StackSource yields the current stacks.
type StackSource interface {
	Stacks() []order.Stack
}

// DirectiveSource compiles the directive snapshot.
type DirectiveSource interface {
	Compile() directives.Directives
}

// TourSource yields the tour graph and its integrity problems.
type TourSource interface {
	Tour() tour.Tour
	TourProblems() []string
}

// Deps bundles the collaborators of a Gate.
type Deps struct {
	Controller Controller
	Stacks     StackSource
	Directives DirectiveSource
	Tour       TourSource
	Committer  Committer
	// Revision returns the job revision the session is based on.
	Revision func() int64
	Logger   *slog.Logger
}

// Gate validates and locks one job.
type Gate struct {
	mu     sync.Mutex
	jobID  string
	deps   Deps
	logger *slog.Logger
	last   *services.ValidationError
}

// New builds a gate for jobID.
func New(jobID string, deps Deps) *Gate {
	return &Gate{
		jobID:  jobID,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "lockgate").With(logging.String(logging.FieldJobID, jobID)),
	}
}

// Check runs validation without committing. It returns nil when the job is
// ready to lock.
func (g *Gate) Check() *services.ValidationError {
	var missing []string
	for _, stack := range order.MissingRoomType(g.deps.Stacks.Stacks()) {
		missing = append(missing, stack.ID)
	}
	var problems []string
	if g.deps.Tour != nil {
		problems = append(problems, g.deps.Tour.TourProblems()...)
		t := g.deps.Tour.Tour()
		if len(t.Panoramas) > 0 && t.StartPanorama == "" {
			problems = append(problems, "tour has no start panorama")
		}
	}
	if len(missing) == 0 && len(problems) == 0 {
		return nil
	}
	return &services.ValidationError{Stacks: missing, Problems: problems}
}

// LastValidation returns the validation failure of the most recent Lock
// attempt, or nil.
func (g *Gate) LastValidation() *services.ValidationError {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Lock validates the job and commits the lock. On validation failure the
// workflow is redirected to room assignment and a *services.ValidationError
// is returned. Commit failures leave the job unlocked and can be retried.
// Locking an already locked job is a no-op.
func (g *Gate) Lock(ctx context.Context) (backend.CommitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.deps.Controller.Locked() {
		return backend.CommitResult{}, nil
	}
	ctx = services.WithStep(services.WithJobID(ctx, g.jobID), int(order.StepLock))
	logger := logging.WithContext(ctx, g.logger)

	if verr := g.Check(); verr != nil {
		g.last = verr
		if err := g.deps.Controller.RedirectToStep(order.StepRooms); err != nil {
			return backend.CommitResult{}, err
		}
		logger.Info("lock refused",
			logging.Int("missing_room_types", verr.Count()),
			logging.Int("tour_problems", len(verr.Problems)),
		)
		return backend.CommitResult{}, verr
	}
	g.last = nil

	req := backend.CommitRequest{
		Directives: g.deps.Directives.Compile(),
		Locked:     true,
	}
	if g.deps.Revision != nil {
		req.Revision = g.deps.Revision()
	}
	if g.deps.Tour != nil {
		// An empty snapshot still replaces whatever tour a draft stored.
		t := g.deps.Tour.Tour()
		req.Tour = &t
	}

	result, err := g.deps.Committer.Commit(ctx, g.jobID, req)
	if err != nil {
		logging.WarnWithContext(logger, "commit failed", "commit_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job remains unlocked"),
			logging.String(logging.FieldErrorHint, commitHint(err)),
		)
		return backend.CommitResult{}, classify(err)
	}

	g.deps.Controller.MarkLocked()
	logger.Info("job locked",
		logging.Int64("revision", result.Revision),
		logging.Int("retouch_flags", len(req.Directives.Retouch)),
		logging.Bool("tour", req.Tour != nil && !req.Tour.Empty()),
	)
	return result, nil
}

func classify(err error) error {
	if errors.Is(err, services.ErrConflict) || errors.Is(err, services.ErrRejected) || errors.Is(err, services.ErrValidation) {
		return err
	}
	return services.NewTransportError("commit", err)
}

func commitHint(err error) string {
	if errors.Is(err, services.ErrConflict) {
		return "reload the job; it changed since this session opened"
	}
	return "retry the lock"
}
