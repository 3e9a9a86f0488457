package api

import (
	"fmt"
	"strings"
	"time"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/order"
)

// FromJob converts a job to its API representation.
func FromJob(job order.Job) Job {
	dto := Job{
		ID:        job.ID,
		Address:   job.Address,
		Customer:  job.Customer,
		Step:      int(job.Step),
		StepLabel: job.Step.Label(),
		Locked:    job.Locked,
		Revision:  job.Revision,
	}
	if !job.Date.IsZero() {
		dto.Date = job.Date.Format(jobDateFormat)
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of jobs.
func FromJobs(jobs []order.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// ToJob parses a job DTO.
func ToJob(dto Job) (order.Job, error) {
	job := order.Job{
		ID:       dto.ID,
		Address:  dto.Address,
		Customer: dto.Customer,
		Step:     order.Step(dto.Step),
		Locked:   dto.Locked,
		Revision: dto.Revision,
	}
	if !job.Step.Valid() {
		job.Step = order.FirstStep
	}
	var err error
	if job.Date, err = ParseJobDate(dto.Date); err != nil {
		return order.Job{}, err
	}
	if job.CreatedAt, err = parseTime(dto.CreatedAt); err != nil {
		return order.Job{}, fmt.Errorf("job %s createdAt: %w", dto.ID, err)
	}
	if job.UpdatedAt, err = parseTime(dto.UpdatedAt); err != nil {
		return order.Job{}, fmt.Errorf("job %s updatedAt: %w", dto.ID, err)
	}
	return job, nil
}

// ParseJobDate parses a YYYY-MM-DD shoot date. The empty string yields the
// zero time.
func ParseJobDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(jobDateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return t, nil
}

// FormatJobDate formats a shoot date, or returns "" for the zero time.
func FormatJobDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(jobDateFormat)
}

// FromAsset converts an asset to its API representation.
func FromAsset(asset order.Asset) Asset {
	dto := Asset{
		ID:        asset.ID,
		Name:      asset.Name,
		Size:      asset.Size,
		MediaType: asset.MediaType,
		URL:       asset.URL,
		Checksum:  asset.Checksum,
		Width:     asset.Width,
		Height:    asset.Height,
		Is360:     asset.Is360,
	}
	dto.CapturedAt = FormatCaptureTime(asset.CapturedAt)
	if !asset.CreatedAt.IsZero() {
		dto.CreatedAt = asset.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// ToAsset parses an asset DTO belonging to jobID.
func ToAsset(jobID string, dto Asset) (order.Asset, error) {
	asset := order.Asset{
		ID:        dto.ID,
		JobID:     jobID,
		Name:      dto.Name,
		Size:      dto.Size,
		MediaType: dto.MediaType,
		URL:       dto.URL,
		Checksum:  dto.Checksum,
		Width:     dto.Width,
		Height:    dto.Height,
		Is360:     dto.Is360,
	}
	var err error
	if asset.CapturedAt, err = ParseCaptureTime(dto.CapturedAt); err != nil {
		return order.Asset{}, fmt.Errorf("asset %s: %w", dto.ID, err)
	}
	if asset.CreatedAt, err = parseTime(dto.CreatedAt); err != nil {
		return order.Asset{}, fmt.Errorf("asset %s createdAt: %w", dto.ID, err)
	}
	return asset, nil
}

// FormatCaptureTime renders a capture time with full precision, or "" when
// the capture time is unknown.
func FormatCaptureTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(captureTimeFormat)
}

// ParseCaptureTime parses a capture time written by FormatCaptureTime.
func ParseCaptureTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid capture time %q", value)
	}
	return t, nil
}

// FromStack converts a stack to its API representation.
func FromStack(stack order.Stack) Stack {
	return Stack{
		ID:       stack.ID,
		Position: stack.Position,
		Type:     string(stack.Type),
		RoomType: string(stack.RoomType),
		Comment:  stack.Comment,
		AssetIDs: stack.AssetIDs(),
	}
}

// FromStackSet converts an authoritative stack set.
func FromStackSet(set backend.StackSet) StackSet {
	dto := StackSet{
		Assets:   make([]Asset, 0, len(set.Assets)),
		Stacks:   make([]Stack, 0, len(set.Stacks)),
		Revision: set.Revision,
	}
	for _, asset := range set.Assets {
		dto.Assets = append(dto.Assets, FromAsset(asset))
	}
	for _, stack := range set.Stacks {
		dto.Stacks = append(dto.Stacks, FromStack(stack))
	}
	return dto
}

// ToStackSet rebuilds a stack set, resolving stack members against the
// listed assets. A stack naming an unknown asset is an error.
func ToStackSet(jobID string, dto StackSet) (backend.StackSet, error) {
	set := backend.StackSet{Revision: dto.Revision}
	byID := make(map[string]order.Asset, len(dto.Assets))
	for _, raw := range dto.Assets {
		asset, err := ToAsset(jobID, raw)
		if err != nil {
			return backend.StackSet{}, err
		}
		set.Assets = append(set.Assets, asset)
		byID[asset.ID] = asset
	}
	for _, raw := range dto.Stacks {
		stackType, ok := order.ParseStackType(raw.Type)
		if !ok {
			return backend.StackSet{}, fmt.Errorf("stack %s: unknown type %q", raw.ID, raw.Type)
		}
		stack := order.Stack{
			ID:       raw.ID,
			JobID:    jobID,
			Position: raw.Position,
			Type:     stackType,
			RoomType: order.RoomType(raw.RoomType),
			Comment:  raw.Comment,
			Assets:   make([]order.Asset, 0, len(raw.AssetIDs)),
		}
		for _, id := range raw.AssetIDs {
			asset, ok := byID[id]
			if !ok {
				return backend.StackSet{}, fmt.Errorf("stack %s references unknown asset %s", raw.ID, id)
			}
			stack.Assets = append(stack.Assets, asset)
		}
		set.Stacks = append(set.Stacks, stack)
	}
	return set, nil
}

// FromJobRecord converts a job record.
func FromJobRecord(rec backend.JobRecord) JobRecord {
	return JobRecord{
		Job:        FromJob(rec.Job),
		Directives: rec.Directives,
		Tour:       rec.Tour,
	}
}

// ToJobRecord parses a job record DTO.
func ToJobRecord(dto JobRecord) (backend.JobRecord, error) {
	job, err := ToJob(dto.Job)
	if err != nil {
		return backend.JobRecord{}, err
	}
	return backend.JobRecord{Job: job, Directives: dto.Directives, Tour: dto.Tour}, nil
}

// FromCommitResult converts a commit acknowledgement.
func FromCommitResult(res backend.CommitResult) CommitResponse {
	dto := CommitResponse{Revision: res.Revision}
	if !res.LockedAt.IsZero() {
		dto.LockedAt = res.LockedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// ToCommitResult parses a commit acknowledgement.
func ToCommitResult(dto CommitResponse) (backend.CommitResult, error) {
	lockedAt, err := parseTime(dto.LockedAt)
	if err != nil {
		return backend.CommitResult{}, fmt.Errorf("lockedAt: %w", err)
	}
	return backend.CommitResult{Revision: dto.Revision, LockedAt: lockedAt}, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
