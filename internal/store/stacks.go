package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

// FetchStacks regroups the job's assets and overlays stored annotations.
func (s *Store) FetchStacks(ctx context.Context, jobID string) (backend.StackSet, error) {
	job, err := s.loadJob(ctx, s.db, jobID)
	if err != nil {
		return backend.StackSet{}, err
	}
	assets, stacks, err := s.currentStacks(ctx, s.db, jobID)
	if err != nil {
		return backend.StackSet{}, err
	}
	return backend.StackSet{
		Assets:   assets,
		Stacks:   stacks,
		Revision: job.job.Revision,
	}, nil
}

func (s *Store) currentStacks(ctx context.Context, q querier, jobID string) ([]order.Asset, []order.Stack, error) {
	assets, err := s.listAssets(ctx, q, jobID)
	if err != nil {
		return nil, nil, err
	}
	stacks := s.grouper.Group(assets)
	annotations, err := s.annotations(ctx, q, jobID)
	if err != nil {
		return nil, nil, err
	}
	for i := range stacks {
		if ann, ok := annotations[stacks[i].ID]; ok {
			stacks[i].RoomType = ann.RoomType
			stacks[i].Comment = ann.Comment
		}
	}
	return assets, stacks, nil
}

func (s *Store) annotations(ctx context.Context, q querier, jobID string) (map[string]order.Annotation, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT stack_id, room_type, comment FROM annotations WHERE job_id = ?", jobID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]order.Annotation)
	for rows.Next() {
		var (
			ann  order.Annotation
			room string
		)
		if err := rows.Scan(&ann.StackID, &room, &ann.Comment); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		ann.RoomType = order.RoomType(room)
		out[ann.StackID] = ann
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return out, nil
}

// SaveAnnotation replaces the room type and comment of one stack.
func (s *Store) SaveAnnotation(ctx context.Context, jobID string, annotation order.Annotation) error {
	room := order.RoomType("")
	if raw := strings.TrimSpace(string(annotation.RoomType)); raw != "" {
		parsed, ok := order.ParseRoomType(raw)
		if !ok {
			return services.Wrap(services.ErrValidation, "store", "save annotation",
				fmt.Sprintf("unknown room type %q", raw), nil)
		}
		room = parsed
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := s.loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.job.Locked {
			return services.Wrap(services.ErrRejected, "store", "save annotation", "job is locked", nil)
		}
		_, stacks, err := s.currentStacks(ctx, tx, jobID)
		if err != nil {
			return err
		}
		found := false
		for _, stack := range stacks {
			if stack.ID == annotation.StackID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("stack %s: %w", annotation.StackID, services.ErrNotFound)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO annotations (job_id, stack_id, room_type, comment, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (job_id, stack_id) DO UPDATE SET
			   room_type = excluded.room_type,
			   comment = excluded.comment,
			   updated_at = excluded.updated_at`,
			jobID, annotation.StackID, string(room), annotation.Comment, s.timestamp(),
		); err != nil {
			return fmt.Errorf("upsert annotation: %w", err)
		}
		return nil
	})
}
