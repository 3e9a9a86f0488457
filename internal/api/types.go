package api

import (
	"lichtwerk/internal/directives"
	"lichtwerk/internal/tour"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// captureTimeFormat keeps sub-second precision of capture timestamps.
const captureTimeFormat = "2006-01-02T15:04:05.999999999Z07:00"

// jobDateFormat is the calendar date of a shoot.
const jobDateFormat = "2006-01-02"

// CapturedAtHeader carries the capture time of one multipart upload part.
const CapturedAtHeader = "X-Captured-At"

// UploadField is the multipart form field holding upload files.
const UploadField = "file"

// Job describes a photography order.
type Job struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Customer  string `json:"customer,omitempty"`
	Date      string `json:"date,omitempty"`
	Step      int    `json:"step"`
	StepLabel string `json:"stepLabel"`
	Locked    bool   `json:"locked"`
	Revision  int64  `json:"revision"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Asset describes one stored media file.
type Asset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MediaType  string `json:"mediaType"`
	URL        string `json:"url"`
	Checksum   string `json:"checksum"`
	CapturedAt string `json:"capturedAt,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Is360      bool   `json:"is360"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// Stack describes a group of assets forming one deliverable.
type Stack struct {
	ID       string   `json:"id"`
	Position int      `json:"position"`
	Type     string   `json:"type"`
	RoomType string   `json:"roomType,omitempty"`
	Comment  string   `json:"comment,omitempty"`
	AssetIDs []string `json:"assetIds"`
}

// StackSet is the authoritative asset and stack state of a job.
type StackSet struct {
	Assets   []Asset `json:"assets"`
	Stacks   []Stack `json:"stacks"`
	Revision int64   `json:"revision"`
}

// JobRecord is a job together with its stored directives and tour.
type JobRecord struct {
	Job        Job                   `json:"job"`
	Directives directives.Directives `json:"directives"`
	Tour       tour.Tour             `json:"tour"`
}

// CreateJobRequest creates a job.
type CreateJobRequest struct {
	Address  string `json:"address"`
	Customer string `json:"customer,omitempty"`
	Date     string `json:"date,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// UploadResponse acknowledges a stored batch.
type UploadResponse struct {
	UploadedCount int      `json:"uploadedCount"`
	Duplicates    []string `json:"duplicates"`
}

// AnnotationRequest replaces the room type and comment of a stack.
type AnnotationRequest struct {
	RoomType string `json:"roomType"`
	Comment  string `json:"comment"`
}

// CommitRequest stores directives and tour and optionally locks the job.
type CommitRequest struct {
	Revision   int64                 `json:"revision"`
	Directives directives.Directives `json:"directives"`
	Tour       *tour.Tour            `json:"tour,omitempty"`
	Step       int                   `json:"step,omitempty"`
	Locked     bool                  `json:"locked"`
}

// CommitResponse acknowledges a commit.
type CommitResponse struct {
	Revision int64  `json:"revision"`
	LockedAt string `json:"lockedAt,omitempty"`
}

// HealthResponse reports server and database readiness.
type HealthResponse struct {
	Status        string   `json:"status"`
	SchemaVersion int      `json:"schemaVersion"`
	Jobs          int      `json:"jobs"`
	Assets        int      `json:"assets"`
	MissingTables []string `json:"missingTables,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeValidation   = "validation"
	CodeRejected     = "rejected"
	CodeUnsupported  = "unsupported_asset"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Stacks   []string `json:"stacks,omitempty"`
	Problems []string `json:"problems,omitempty"`
	Files    []string `json:"files,omitempty"`
}
