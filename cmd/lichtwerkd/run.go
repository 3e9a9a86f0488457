package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/gofrs/flock"

	"lichtwerk/internal/config"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/preflight"
	"lichtwerk/internal/server"
	"lichtwerk/internal/store"
)

// run serves the store until ctx is done. A nil listener binds
// cfg.Paths.APIBind.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, listener net.Listener) error {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another lichtwerkd instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight ok", logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		if result.Required {
			return fmt.Errorf("preflight %s: %s", strings.ToLower(result.Name), result.Detail)
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "uploads may fail"),
		)
	}

	st, err := store.Open(cfg, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	srv := server.FromStore(st, server.Options{
		Bind:          cfg.Paths.APIBind,
		Token:         cfg.Backend.APIToken,
		MaxBatchFiles: cfg.Ingest.MaxBatchFiles,
		MaxFileBytes:  cfg.MaxFileBytes(),
		Logger:        logger,
	})
	logger.Info("lichtwerkd started",
		logging.String("database", st.Path()),
		logging.String("lock", cfg.LockPath()),
		logging.Bool("auth", cfg.Backend.APIToken != ""),
	)
	if listener != nil {
		err = srv.Serve(ctx, listener)
	} else {
		err = srv.Run(ctx)
	}
	logger.Info("lichtwerkd shutting down")
	return err
}
