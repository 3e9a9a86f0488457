package store

import (
	"context"
	"fmt"
	"strings"
)

// HealthStatus summarizes database readiness.
type HealthStatus struct {
	DBPath         string
	DatabaseExists bool
	TablesPresent  []string
	MissingTables  []string
	SchemaVersion  int
	Jobs           int
	Assets         int
	Error          string
}

// Ready reports whether the database answered every check.
func (h HealthStatus) Ready() bool {
	return h.DatabaseExists && len(h.MissingTables) == 0 && h.Error == ""
}

var requiredTables = []string{"jobs", "assets", "annotations", "commits"}

// Health inspects the database for the status command and the HTTP health
// endpoint.
func (s *Store) Health(ctx context.Context) (HealthStatus, error) {
	status := HealthStatus{DBPath: s.path}
	if err := s.db.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("ping database: %w", err)
	}
	status.DatabaseExists = true

	for _, table := range requiredTables {
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name = ?", table,
		).Scan(&count); err != nil {
			status.Error = err.Error()
			return status, fmt.Errorf("check table %s: %w", table, err)
		}
		if count == 0 {
			status.MissingTables = append(status.MissingTables, table)
		} else {
			status.TablesPresent = append(status.TablesPresent, table)
		}
	}
	if len(status.MissingTables) > 0 {
		status.Error = "missing tables: " + strings.Join(status.MissingTables, ", ")
		return status, nil
	}

	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&status.SchemaVersion); err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("read schema version: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM jobs").Scan(&status.Jobs); err != nil {
		return status, fmt.Errorf("count jobs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM assets").Scan(&status.Assets); err != nil {
		return status, fmt.Errorf("count assets: %w", err)
	}
	return status, nil
}
