package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lichtwerk/internal/config"
)

// Result is the outcome of one check. Required checks gate daemon startup;
// the rest are reported as warnings.
type Result struct {
	Name     string
	Passed   bool
	Required bool
	Detail   string
}

type check func(context.Context) Result

// RunAll runs the checks that apply to cfg concurrently and returns their
// results in a stable order. The backend check only runs in http mode.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	checks := []check{
		func(context.Context) Result { return required(CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)) },
		func(context.Context) Result { return required(CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir)) },
		func(context.Context) Result { return CheckFreeSpace("Media free space", cfg.Paths.MediaDir, MinFreeBytes) },
	}
	if cfg.Backend.Mode == config.BackendHTTP {
		checks = append(checks, func(ctx context.Context) Result {
			return required(CheckBackend(ctx, cfg.Backend.URL, cfg.Backend.APIToken))
		})
	}

	results := make([]Result, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = c(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func required(r Result) Result {
	r.Required = true
	return r
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Blocking returns the failed results that are required.
func Blocking(results []Result) []Result {
	var blocking []Result
	for _, r := range Failed(results) {
		if r.Required {
			blocking = append(blocking, r)
		}
	}
	return blocking
}
