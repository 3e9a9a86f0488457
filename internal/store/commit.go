package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

// Commit stores directives and the tour for a job in one transaction and,
// when req.Locked is set, locks the job. A request built on a stale revision
// or sent to an already locked job fails with services.ErrConflict.
func (s *Store) Commit(ctx context.Context, jobID string, req backend.CommitRequest) (backend.CommitResult, error) {
	if err := req.Directives.Validate(); err != nil {
		return backend.CommitResult{}, err
	}
	directivesJSON, err := encodeDirectives(req.Directives)
	if err != nil {
		return backend.CommitResult{}, err
	}
	var tourJSON any
	if req.Tour != nil {
		data, err := req.Tour.Encode()
		if err != nil {
			return backend.CommitResult{}, err
		}
		tourJSON = string(data)
	}

	var result backend.CommitResult
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := s.loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.job.Locked {
			return fmt.Errorf("job %s already locked: %w", jobID, services.ErrConflict)
		}
		if job.job.Revision != req.Revision {
			return fmt.Errorf("job %s at revision %d, request built on %d: %w",
				jobID, job.job.Revision, req.Revision, services.ErrConflict)
		}
		if req.Locked {
			_, stacks, err := s.currentStacks(ctx, tx, jobID)
			if err != nil {
				return err
			}
			if missing := order.MissingRoomType(stacks); len(missing) > 0 {
				return services.Wrap(services.ErrRejected, "store", "commit",
					fmt.Sprintf("%d stacks missing room type", len(missing)), nil)
			}
		}

		now := s.now().UTC()
		stamp := now.Format(time.RFC3339Nano)
		next := job.job.Revision + 1
		step := job.job.Step
		if req.Step != 0 {
			if !req.Step.Valid() {
				return fmt.Errorf("%w: step %d out of range", services.ErrValidation, req.Step)
			}
			step = req.Step
		}
		var lockedAt any
		if req.Locked {
			step = order.LastStep
			lockedAt = stamp
			result.LockedAt = now
		}
		if tourJSON == nil && job.tourJSON.Valid {
			tourJSON = job.tourJSON.String
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET locked = ?, step = ?, revision = ?, directives_json = ?, tour_json = ?,
			 locked_at = ?, updated_at = ? WHERE id = ?`,
			sqlBool(req.Locked), int(step), next, directivesJSON, tourJSON, lockedAt, stamp, jobID,
		); err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO commits (job_id, revision, locked, directives_json, tour_json, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			jobID, next, sqlBool(req.Locked), directivesJSON, tourJSON, stamp,
		); err != nil {
			return fmt.Errorf("record commit: %w", err)
		}
		result.Revision = next
		return nil
	})
	if err != nil {
		return backend.CommitResult{}, err
	}

	s.logger.Info("job committed",
		logging.String(logging.FieldJobID, jobID),
		logging.Int64("revision", result.Revision),
		logging.Bool("locked", req.Locked),
	)
	return result, nil
}

// CommitCount returns the number of commits recorded for a job.
func (s *Store) CommitCount(ctx context.Context, jobID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM commits WHERE job_id = ?", jobID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return n, nil
}
