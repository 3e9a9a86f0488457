package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in SQLite's user_version header field. Bump it
// whenever schema.sql changes; there are no in-place migrations.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Open when an existing database was
// written by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if version == 0 {
		empty, err := s.isEmpty(ctx)
		if err != nil {
			return err
		}
		if empty {
			return s.withTx(ctx, createSchema)
		}
	}
	return fmt.Errorf("%w: %s has version %d, want %d (move it aside to start fresh)",
		ErrSchemaMismatch, s.path, version, schemaVersion)
}

func (s *Store) isEmpty(ctx context.Context) (bool, error) {
	var tables int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
	).Scan(&tables)
	if err != nil {
		return false, fmt.Errorf("inspect database: %w", err)
	}
	return tables == 0, nil
}

func createSchema(tx *sql.Tx) error {
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
