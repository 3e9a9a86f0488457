package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"lichtwerk/internal/directives"
	"lichtwerk/internal/order"
	"lichtwerk/internal/tour"
)

// JobRecord is the job as read at session open, together with the directive
// defaults and any tour stored with it.
type JobRecord struct {
	Job        order.Job
	Directives directives.Directives
	Tour       tour.Tour
}

// File is one upload candidate. Open may be called more than once.
type File struct {
	Name       string
	Size       int64
	MediaType  string
	CapturedAt time.Time
	Open       func() (io.ReadCloser, error)
}

// FileFromBytes wraps in-memory content as a File.
func FileFromBytes(name string, data []byte, capturedAt time.Time) File {
	return File{
		Name:       name,
		Size:       int64(len(data)),
		CapturedAt: capturedAt,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileFromPath describes a file on disk. The modification time stands in for
// the capture time.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name:       filepath.Base(path),
		Size:       info.Size(),
		CapturedAt: info.ModTime(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// UploadResult acknowledges a stored batch.
type UploadResult struct {
	UploadedCount int
	// Duplicates names files skipped because identical content already
	// belongs to the job.
	Duplicates []string
}

// StackSet is the authoritative asset and stack state of a job.
type StackSet struct {
	Assets   []order.Asset
	Stacks   []order.Stack
	Revision int64
}

// CommitRequest is the single atomic lock payload. Step records the wizard
// position of a draft; zero leaves the stored step unchanged and a lock
// always moves the job to the final step.
type CommitRequest struct {
	Revision   int64
	Directives directives.Directives
	Tour       *tour.Tour
	Step       order.Step
	Locked     bool
}

// CommitResult acknowledges a commit.
type CommitResult struct {
	Revision int64
	LockedAt time.Time
}

// NewJob carries the fields needed to create a job.
type NewJob struct {
	Address  string
	Customer string
	Date     time.Time
}

// Backend is the full authoritative collaborator.
type Backend interface {
	FetchJob(ctx context.Context, jobID string) (JobRecord, error)
	Upload(ctx context.Context, jobID string, files []File) (UploadResult, error)
	FetchStacks(ctx context.Context, jobID string) (StackSet, error)
	SaveAnnotation(ctx context.Context, jobID string, annotation order.Annotation) error
	Commit(ctx context.Context, jobID string, req CommitRequest) (CommitResult, error)
}

// Admin manages jobs outside of a single editing session.
type Admin interface {
	CreateJob(ctx context.Context, job NewJob) (order.Job, error)
	ListJobs(ctx context.Context) ([]order.Job, error)
}

// Client combines Backend and Admin; both implementations satisfy it.
type Client interface {
	Backend
	Admin
	Close() error
}
