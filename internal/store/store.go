package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"lichtwerk/internal/config"
	"lichtwerk/internal/grouping"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/media"
)

// Store persists jobs and assets in SQLite and blobs on disk.
type Store struct {
	db      *sql.DB
	path    string
	blobs   *media.BlobStore
	grouper grouping.Engine
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logging.NewComponentLogger(logger, "store") }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the job database and blob directory
// named by cfg.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	blobs, err := media.NewBlobStore(cfg.Paths.MediaDir)
	if err != nil {
		return nil, err
	}

	path := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open job database: %w", err)
	}
	s := &Store{
		db:      db,
		path:    path,
		blobs:   blobs,
		grouper: grouping.New(grouping.Options{BracketWindow: cfg.BracketWindow()}),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// dsn carries the connection pragmas so each pooled connection applies them.
func dsn(path string) string {
	q := url.Values{}
	for _, pragma := range []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)"} {
		q.Add("_pragma", pragma)
	}
	return "file:" + path + "?" + q.Encode()
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Blobs exposes the blob store so the HTTP server can serve asset bytes.
func (s *Store) Blobs() *media.BlobStore { return s.blobs }

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
