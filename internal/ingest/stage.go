package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/media"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

const sniffLen = 512

// LockState reports whether the owning job is locked.
type LockState interface {
	Locked() bool
}

// Uploader is the slice of the backend the stage talks to.
type Uploader interface {
	Upload(ctx context.Context, jobID string, files []backend.File) (backend.UploadResult, error)
	FetchStacks(ctx context.Context, jobID string) (backend.StackSet, error)
}

// Limits bounds a single batch. Zero values disable a limit.
type Limits struct {
	MaxBatchFiles int
	MaxFileBytes  int64
}

// Result summarizes one submitted batch.
type Result struct {
	UploadedCount int      `json:"uploadedCount"`
	Duplicates    []string `json:"duplicates,omitempty"`
	Rejected      []string `json:"rejected,omitempty"`
	Oversized     []string `json:"oversized,omitempty"`
	Assets        int      `json:"assets"`
	Stacks        int      `json:"stacks"`
}

// Outcome is delivered by SubmitBatchAsync.
type Outcome struct {
	Result Result
	Err    error
}

// Stage is the ingestion step of one job.
type Stage struct {
	mu        sync.Mutex
	jobID     string
	lock      LockState
	backend   Uploader
	inventory *order.Inventory
	limits    Limits
	onRefresh func(backend.StackSet)
	logger    *slog.Logger
}

// Option configures a Stage.
type Option func(*Stage)

// WithLimits sets batch limits.
func WithLimits(l Limits) Option {
	return func(s *Stage) { s.limits = l }
}

// WithRefreshHook registers fn to observe every successful refetch.
func WithRefreshHook(fn func(backend.StackSet)) Option {
	return func(s *Stage) { s.onRefresh = fn }
}

// New builds a stage for jobID.
func New(jobID string, lock LockState, up Uploader, inventory *order.Inventory, logger *slog.Logger, opts ...Option) *Stage {
	s := &Stage{
		jobID:     jobID,
		lock:      lock,
		backend:   up,
		inventory: inventory,
		logger:    logging.NewComponentLogger(logger, "ingest").With(logging.String(logging.FieldJobID, jobID)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitBatch uploads the supported files of a batch and refreshes local
// state. Excluded files are reported alongside the result: unsupported types
// as *services.UnsupportedAssetError, files over Limits.MaxFileBytes as
// *services.OversizedAssetError (both joined when a batch has both).
func (s *Stage) SubmitBatch(ctx context.Context, files []backend.File) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(files) == 0 || (s.lock != nil && s.lock.Locked()) {
		return Result{}, nil
	}
	if s.limits.MaxBatchFiles > 0 && len(files) > s.limits.MaxBatchFiles {
		return Result{}, fmt.Errorf("%w: batch of %d files exceeds limit of %d", services.ErrValidation, len(files), s.limits.MaxBatchFiles)
	}
	ctx = services.WithStep(services.WithJobID(ctx, s.jobID), int(order.StepUpload))
	logger := logging.WithContext(ctx, s.logger)

	accepted, rejected, oversized, err := s.classify(ctx, files)
	if err != nil {
		return Result{}, err
	}
	result := Result{Rejected: rejected, Oversized: oversized}
	if len(accepted) == 0 {
		logger.Info("batch rejected", logging.Int("files", len(files)))
		return result, s.excluded(rejected, oversized)
	}

	ack, err := s.backend.Upload(ctx, s.jobID, accepted)
	if err != nil {
		logging.WarnWithContext(logger, "upload failed", "upload_failed",
			logging.Int("files", len(accepted)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no assets were added"),
			logging.String(logging.FieldErrorHint, "resubmit the batch"),
		)
		return result, services.NewTransportError("upload", err)
	}
	result.UploadedCount = ack.UploadedCount
	result.Duplicates = ack.Duplicates

	set, err := s.refresh(ctx)
	if err != nil {
		return result, err
	}
	result.Assets = len(set.Assets)
	result.Stacks = len(set.Stacks)

	logger.Info("batch uploaded",
		logging.Int("uploaded", result.UploadedCount),
		logging.Int("duplicates", len(result.Duplicates)),
		logging.Int("rejected", len(rejected)),
		logging.Int("oversized", len(oversized)),
		logging.Int("stacks", result.Stacks),
	)
	return result, s.excluded(rejected, oversized)
}

// excluded reports the files left out of a batch, or nil.
func (s *Stage) excluded(rejected, oversized []string) error {
	var errs []error
	if len(rejected) > 0 {
		errs = append(errs, &services.UnsupportedAssetError{Files: rejected})
	}
	if len(oversized) > 0 {
		errs = append(errs, &services.OversizedAssetError{Files: oversized, Limit: s.limits.MaxFileBytes})
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// SubmitBatchAsync runs SubmitBatch on its own goroutine. The returned
// channel receives exactly one Outcome and is then closed.
func (s *Stage) SubmitBatchAsync(ctx context.Context, files []backend.File) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		result, err := s.SubmitBatch(ctx, files)
		out <- Outcome{Result: result, Err: err}
	}()
	return out
}

// Refresh refetches assets and stacks and replaces the local inventory.
func (s *Stage) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.refresh(ctx)
	return err
}

func (s *Stage) refresh(ctx context.Context) (backend.StackSet, error) {
	set, err := s.backend.FetchStacks(ctx, s.jobID)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "refetch failed", "refetch_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "displayed stacks may be stale"),
			logging.String(logging.FieldErrorHint, "refresh the job"),
		)
		return backend.StackSet{}, services.NewTransportError("fetch stacks", err)
	}
	s.inventory.Replace(set.Assets, set.Stacks)
	if s.onRefresh != nil {
		s.onRefresh(set)
	}
	return set, nil
}

// classify sniffs every file concurrently and splits the batch into
// accepted, unsupported and oversized files, preserving input order.
func (s *Stage) classify(ctx context.Context, files []backend.File) (accepted []backend.File, rejected, oversized []string, err error) {
	types := make([]string, len(files))
	tooLarge := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if s.limits.MaxFileBytes > 0 && f.Size > s.limits.MaxFileBytes {
				tooLarge[i] = true
				return nil
			}
			mediaType, kind := detect(f)
			if kind != media.KindUnsupported {
				types[i] = mediaType
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	for i, f := range files {
		if tooLarge[i] {
			oversized = append(oversized, f.Name)
			continue
		}
		if types[i] == "" {
			rejected = append(rejected, f.Name)
			continue
		}
		f.MediaType = types[i]
		accepted = append(accepted, f)
	}
	return accepted, rejected, oversized, nil
}

func detect(f backend.File) (string, media.Kind) {
	if !media.Supported(f.Name) {
		return "", media.KindUnsupported
	}
	if f.Open == nil {
		return media.Detect(f.Name, nil)
	}
	rc, err := f.Open()
	if err != nil {
		return "", media.KindUnsupported
	}
	defer rc.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", media.KindUnsupported
	}
	return media.Detect(f.Name, head[:n])
}
