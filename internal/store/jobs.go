package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/directives"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/tour"
)

const jobColumns = "id, address, customer, job_date, step, locked, revision, directives_json, tour_json, created_at, updated_at"

const jobDateLayout = "2006-01-02"

type jobRow struct {
	job            order.Job
	directivesJSON sql.NullString
	tourJSON       sql.NullString
}

// CreateJob inserts a new unlocked job at step 1.
func (s *Store) CreateJob(ctx context.Context, job backend.NewJob) (order.Job, error) {
	address := strings.TrimSpace(job.Address)
	if address == "" {
		return order.Job{}, services.Wrap(services.ErrValidation, "store", "create job", "address is required", nil)
	}
	now := s.now().UTC()
	created := order.Job{
		ID:        uuid.NewString(),
		Address:   address,
		Customer:  strings.TrimSpace(job.Customer),
		Date:      job.Date,
		Step:      order.FirstStep,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stamp := now.Format(time.RFC3339Nano)
	if _, err := s.exec(ctx,
		`INSERT INTO jobs (id, address, customer, job_date, step, locked, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		created.ID, created.Address, created.Customer, nullableDate(job.Date), int(created.Step), stamp, stamp,
	); err != nil {
		return order.Job{}, fmt.Errorf("insert job: %w", err)
	}
	s.logger.Info("job created",
		logging.String(logging.FieldJobID, created.ID),
		logging.String("address", created.Address),
	)
	return created, nil
}

// ListJobs returns all jobs, newest first.
func (s *Store) ListJobs(ctx context.Context) ([]order.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []order.Job
	for rows.Next() {
		row, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, row.job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// FetchJob loads a job with its stored directive defaults and tour.
func (s *Store) FetchJob(ctx context.Context, jobID string) (backend.JobRecord, error) {
	row, err := s.loadJob(ctx, s.db, jobID)
	if err != nil {
		return backend.JobRecord{}, err
	}
	rec := backend.JobRecord{Job: row.job}
	if row.directivesJSON.Valid && row.directivesJSON.String != "" {
		if err := json.Unmarshal([]byte(row.directivesJSON.String), &rec.Directives); err != nil {
			return backend.JobRecord{}, fmt.Errorf("decode directives of job %s: %w", jobID, err)
		}
	}
	if row.tourJSON.Valid {
		t, err := tour.Decode([]byte(row.tourJSON.String))
		if err != nil {
			return backend.JobRecord{}, fmt.Errorf("job %s: %w", jobID, err)
		}
		rec.Tour = t
	}
	return rec, nil
}

func (s *Store) loadJob(ctx context.Context, q querier, jobID string) (jobRow, error) {
	row := q.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", jobID)
	result, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return jobRow{}, fmt.Errorf("job %s: %w", jobID, services.ErrNotFound)
	}
	if err != nil {
		return jobRow{}, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (jobRow, error) {
	var (
		row       jobRow
		customer  sql.NullString
		jobDate   sql.NullString
		step      int
		locked    int
		createdAt string
		updatedAt string
	)
	if err := sc.Scan(
		&row.job.ID,
		&row.job.Address,
		&customer,
		&jobDate,
		&step,
		&locked,
		&row.job.Revision,
		&row.directivesJSON,
		&row.tourJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jobRow{}, err
		}
		return jobRow{}, fmt.Errorf("scan job: %w", err)
	}
	row.job.Customer = customer.String
	if jobDate.Valid {
		if d, err := time.Parse(jobDateLayout, jobDate.String); err == nil {
			row.job.Date = d
		}
	}
	row.job.Step = order.Step(step)
	if !row.job.Step.Valid() {
		row.job.Step = order.FirstStep
	}
	row.job.Locked = locked != 0
	if t, ok := parseStamp(createdAt); ok {
		row.job.CreatedAt = t
	}
	if t, ok := parseStamp(updatedAt); ok {
		row.job.UpdatedAt = t
	}
	return row, nil
}

// encodeDirectives serializes directives for the jobs table.
func encodeDirectives(d directives.Directives) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode directives: %w", err)
	}
	return string(data), nil
}
