package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/store"
)

// Backend is the authoritative store the server publishes.
type Backend interface {
	backend.Backend
	backend.Admin
}

// HealthChecker reports database readiness.
type HealthChecker interface {
	Health(ctx context.Context) (store.HealthStatus, error)
}

// MediaSource opens stored blobs by key.
type MediaSource interface {
	Open(key string) (*os.File, error)
}

// Options configures a Server.
type Options struct {
	Bind          string
	Token         string
	MaxBatchFiles int
	MaxFileBytes  int64
	Health        HealthChecker
	Media         MediaSource
	Logger        *slog.Logger
}

// Server is the HTTP front of a Backend.
type Server struct {
	backend Backend
	opts    Options
	logger  *slog.Logger
	router  chi.Router

	listener net.Listener
	server   *http.Server
}

// New builds a server for b.
func New(b Backend, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		backend: b,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "api-server"),
	}
	s.router = s.routes()
	return s
}

// FromStore builds a server publishing st with its health check and blobs.
func FromStore(st *store.Store, opts Options) *Server {
	opts.Health = st
	opts.Media = st.Blobs()
	return New(st, opts)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.requestContext, s.requestLog)

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.opts.Token))

		r.Route("/api/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Post("/", s.handleCreateJob)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Use(jobContext)
				r.Get("/", s.handleGetJob)
				r.Post("/assets", s.handleUpload)
				r.Get("/stacks", s.handleStacks)
				r.Put("/stacks/{stackID}/annotation", s.handleAnnotation)
				r.Post("/commit", s.handleCommit)
			})
		})
		r.Get("/media/*", s.handleMedia)
	})
	return r
}

// Run listens on the configured bind address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve handles requests on listener until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the bound listener address once serving.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
