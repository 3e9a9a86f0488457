package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// busyPolicy bounds how long a write waits for a competing writer. The
// busy_timeout pragma covers most contention; this catches SQLITE_BUSY
// returned at BEGIN or COMMIT, which SQLite does not retry itself.
type busyPolicy struct {
	attempts int
	first    time.Duration
	ceiling  time.Duration
}

var defaultBusyPolicy = busyPolicy{attempts: 5, first: 10 * time.Millisecond, ceiling: 200 * time.Millisecond}

func (p busyPolicy) do(ctx context.Context, op func() error) error {
	wait := p.first
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isBusy(err) || attempt >= p.attempts {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, p.ceiling)
	}
}

// isBusy matches SQLITE_BUSY (5) and its extended codes.
func isBusy(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()&0xff == 5
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := defaultBusyPolicy.do(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// withTx runs fn in a transaction and commits it. The whole transaction is
// replayed when SQLite reports the database busy, so fn must not have side
// effects outside tx.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return defaultBusyPolicy.do(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}
