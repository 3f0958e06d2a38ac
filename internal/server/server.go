// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
	derrors "git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/models"
	"git.home.luguber.info/inful/sandboxer/internal/pipeline"
)

// Runner is the subset of *pipeline.Pipeline the server drives.
type Runner interface {
	Process(ctx context.Context, text string, fw framework.Name) (*pipeline.Result, error)
	Prepare(ctx context.Context, text string, fw framework.Name) (*pipeline.Prepared, error)
}

// History lists recent run reports.
type History interface {
	Runs(ctx context.Context, limit int) ([]*models.Report, error)
}

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	// Metrics serves /metrics when set.
	Metrics     http.Handler
	MetricsPath string
	// History serves /v1/runs when set.
	History History
	Logger  *slog.Logger
}

// Server represents the API server.
type Server struct {
	router       *chi.Mux
	server       *http.Server
	runner       Runner
	catalog      *framework.Catalog
	opts         Options
	logger       *slog.Logger
	errorAdapter *derrors.HTTPErrorAdapter
	started      time.Time
}

// New creates a new API server.
func New(runner Runner, catalog *framework.Catalog, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	s := &Server{
		router:       chi.NewRouter(),
		runner:       runner,
		catalog:      catalog,
		opts:         opts,
		logger:       opts.Logger,
		errorAdapter: derrors.NewHTTPErrorAdapter(opts.Logger),
		started:      time.Now(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(s.recoverPanics)

	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		s.router.Method(http.MethodGet, s.opts.MetricsPath, s.opts.Metrics)
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/frameworks", s.handleFrameworks)
		r.Post("/process", s.handleProcess)
		r.Post("/prepare", s.handlePrepare)
		if s.opts.History != nil {
			r.Get("/runs", s.handleRuns)
		}
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", s.opts.Addr))
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
