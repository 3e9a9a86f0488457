package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lichtwerk/internal/annotate"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/directives"
	"lichtwerk/internal/ingest"
	"lichtwerk/internal/lockgate"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/tour"
	"lichtwerk/internal/workflow"
)

// Options tunes the components of a session.
type Options struct {
	Pricing directives.Pricing
	Limits  ingest.Limits
	Logger  *slog.Logger
}

// Session is the editing state of one job.
type Session struct {
	mu       sync.RWMutex
	job      order.Job
	revision int64

	backend    backend.Backend
	controller *workflow.Controller
	inventory  *order.Inventory
	stage      *ingest.Stage
	annotator  *annotate.Annotator
	compiler   *directives.Compiler
	gate       *lockgate.Gate
	logger     *slog.Logger
}

// View is a read-only snapshot for display.
type View struct {
	Job        order.Job
	State      order.WorkflowState
	Revision   int64
	Assets     []order.Asset
	Stacks     []order.Stack
	Directives directives.Directives
	Advisories []directives.Advisory
	Tour       tour.Tour
	Validation *services.ValidationError
}

// Open loads jobID from b and assembles its components.
func Open(ctx context.Context, b backend.Backend, jobID string, opts Options) (*Session, error) {
	ctx = services.WithJobID(ctx, jobID)
	rec, err := b.FetchJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.NewTransportError("fetch job", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Session{
		job:       rec.Job,
		revision:  rec.Job.Revision,
		backend:   b,
		inventory: &order.Inventory{},
		logger:    logging.NewComponentLogger(logger, "session").With(logging.String(logging.FieldJobID, jobID)),
	}

	s.controller = workflow.NewController(jobID, order.WorkflowState{Step: rec.Job.Step}, logger)
	lock := s.controller.State()
	s.compiler = directives.New(lock, opts.Pricing, logger)
	s.annotator = annotate.New(jobID, lock, b, s.inventory, logger)
	s.stage = ingest.New(jobID, lock, b, s.inventory, logger,
		ingest.WithLimits(opts.Limits),
		ingest.WithRefreshHook(s.observeRefresh),
	)
	s.gate = lockgate.New(jobID, lockgate.Deps{
		Controller: s.controller,
		Stacks:     s.inventory,
		Directives: s.compiler,
		Tour:       s.annotator,
		Committer:  b,
		Revision:   s.Revision,
		Logger:     logger,
	})

	if err := s.compiler.ApplyDefaults(rec.Directives); err != nil {
		logging.WarnWithContext(s.logger, "stored directives ignored", "directive_defaults_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "editing choices start empty"),
		)
	}
	if err := s.annotator.LoadTour(rec.Tour); err != nil {
		logging.WarnWithContext(s.logger, "stored tour ignored", "tour_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "panorama graph starts empty"),
		)
	}
	if err := s.stage.Refresh(ctx); err != nil {
		return nil, err
	}
	if rec.Job.Locked {
		s.controller.MarkLocked()
	}
	s.logger.Debug("session opened",
		logging.Int(logging.FieldStep, int(s.controller.Step())),
		logging.Bool("locked", s.controller.Locked()),
	)
	return s, nil
}

func (s *Session) observeRefresh(set backend.StackSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set.Revision > s.revision {
		s.revision = set.Revision
	}
}

// JobID returns the job identifier.
func (s *Session) JobID() string { return s.job.ID }

// Revision returns the job revision the next commit is checked against.
func (s *Session) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Workflow returns the step controller.
func (s *Session) Workflow() *workflow.Controller { return s.controller }

// Ingest returns the ingestion stage.
func (s *Session) Ingest() *ingest.Stage { return s.stage }

// Annotator returns the room and tour annotator.
func (s *Session) Annotator() *annotate.Annotator { return s.annotator }

// Directives returns the directive compiler.
func (s *Session) Directives() *directives.Compiler { return s.compiler }

// Lock runs the lock gate and records the acknowledged revision.
func (s *Session) Lock(ctx context.Context) (backend.CommitResult, error) {
	result, err := s.gate.Lock(ctx)
	if err != nil {
		return result, err
	}
	s.mu.Lock()
	if result.Revision > s.revision {
		s.revision = result.Revision
	}
	s.job.Locked = s.controller.Locked()
	s.mu.Unlock()
	return result, nil
}

// SaveDraft stores the current directives and tour without locking, so they
// survive until the next session. It is a no-op once the job is locked.
func (s *Session) SaveDraft(ctx context.Context) (backend.CommitResult, error) {
	if s.controller.Locked() {
		return backend.CommitResult{}, nil
	}
	t := s.annotator.Tour()
	req := backend.CommitRequest{
		Revision:   s.Revision(),
		Directives: s.compiler.Compile(),
		Tour:       &t,
		Step:       s.controller.Step(),
	}
	result, err := s.backend.Commit(services.WithJobID(ctx, s.job.ID), s.job.ID, req)
	if err != nil {
		if errors.Is(err, services.ErrConflict) || errors.Is(err, services.ErrRejected) || errors.Is(err, services.ErrValidation) {
			return backend.CommitResult{}, err
		}
		return backend.CommitResult{}, services.NewTransportError("save draft", err)
	}
	s.mu.Lock()
	if result.Revision > s.revision {
		s.revision = result.Revision
	}
	s.mu.Unlock()
	s.logger.Debug("draft saved", logging.Int64("revision", result.Revision))
	return result, nil
}

// Check reports what currently blocks locking, or nil.
func (s *Session) Check() *services.ValidationError {
	return s.gate.Check()
}

// View returns a snapshot of everything the surrounding application displays.
func (s *Session) View() View {
	s.mu.RLock()
	job, revision := s.job, s.revision
	s.mu.RUnlock()

	state := s.controller.Snapshot()
	job.Step = state.Step
	job.Locked = state.Locked
	job.Revision = revision
	return View{
		Job:        job,
		State:      state,
		Revision:   revision,
		Assets:     s.inventory.Assets(),
		Stacks:     s.inventory.Stacks(),
		Directives: s.compiler.Compile(),
		Advisories: s.compiler.Advisories(),
		Tour:       s.annotator.Tour(),
		Validation: s.gate.LastValidation(),
	}
}
