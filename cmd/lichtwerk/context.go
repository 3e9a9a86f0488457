package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/backend/httpbackend"
	"lichtwerk/internal/config"
	"lichtwerk/internal/directives"
	"lichtwerk/internal/ingest"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/session"
	"lichtwerk/internal/store"
)

// commandContext carries the global flags and the lazily opened config,
// logger and backend for a single CLI invocation.
type commandContext struct {
	configPath string
	json       bool

	cfg     *config.Config
	logger  *slog.Logger
	backend backend.Client
}

// loadConfig reads the configuration once per invocation and creates its
// directories.
func (c *commandContext) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(strings.TrimSpace(c.configPath))
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) jsonOutput() bool { return c.json }

func (c *commandContext) loggerFor(cmd *cobra.Command) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return logging.NewNop()
	}
	c.logger = logger
	return logger
}

// openBackend connects to the backend selected by backend.mode. The
// connection is reused for the rest of the invocation.
func (c *commandContext) openBackend(cmd *cobra.Command) (backend.Client, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := c.loggerFor(cmd)
	switch cfg.Backend.Mode {
	case config.BackendHTTP:
		client, err := httpbackend.FromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		c.backend = client
	default:
		st, err := store.Open(cfg, store.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		c.backend = st
	}
	return c.backend, nil
}

func (c *commandContext) sessionOptions(cmd *cobra.Command) (session.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return session.Options{}, err
	}
	pricing, err := directives.NewPricing(cfg.Directives.Currency, cfg.Directives.Surcharges)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Pricing: pricing,
		Limits: ingest.Limits{
			MaxBatchFiles: cfg.Ingest.MaxBatchFiles,
			MaxFileBytes:  cfg.MaxFileBytes(),
		},
		Logger: c.loggerFor(cmd),
	}, nil
}

// openSession opens an editing session for jobID.
func (c *commandContext) openSession(cmd *cobra.Command, jobID string) (*session.Session, error) {
	b, err := c.openBackend(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := c.sessionOptions(cmd)
	if err != nil {
		return nil, err
	}
	s, err := session.Open(cmd.Context(), b, strings.TrimSpace(jobID), opts)
	if err != nil {
		return nil, fmt.Errorf("open job %s: %w", jobID, err)
	}
	return s, nil
}

// withDraft opens a session, runs fn and saves the directives and tour.
func (c *commandContext) withDraft(cmd *cobra.Command, jobID string, fn func(context.Context, *session.Session) error) (*session.Session, error) {
	s, err := c.openSession(cmd, jobID)
	if err != nil {
		return nil, err
	}
	if s.Workflow().Locked() {
		return s, errJobLocked
	}
	if err := fn(cmd.Context(), s); err != nil {
		return s, err
	}
	if _, err := s.SaveDraft(cmd.Context()); err != nil {
		return s, fmt.Errorf("save changes: %w", err)
	}
	return s, nil
}

var errJobLocked = errors.New("job is locked; no further changes are accepted")

func (c *commandContext) close() error {
	if c.backend == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

const annotationNoConfig = "lichtwerk/no-config"

// withoutConfig marks cmd as runnable before a valid configuration exists.
func withoutConfig(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNoConfig] = "true"
	return cmd
}

func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoConfig] == "true" {
			return false
		}
	}
	return true
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
