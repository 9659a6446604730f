package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"flowcli/internal/config"
	apperrors "flowcli/internal/errors"
	"flowcli/internal/infrastructure"
	"flowcli/internal/middleware"
)

// Server browses the charts and exports of a run
type Server struct {
	cfg    config.ServerConfig
	router chi.Router
	logger *slog.Logger
}

// NewServer builds the router. tel may be nil, in which case /metrics answers 404.
func NewServer(cfg config.ServerConfig, paths *config.Paths, tel *infrastructure.Telemetry, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	errHandler := apperrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TraceID)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errHandler.Recoverer)
	r.Use(middleware.SecurityHeaders)
	if cfg.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger).Handler)
	}

	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	health := NewHealthHandler(paths, logger)
	charts := NewChartHandler(paths, errHandler, logger)

	r.Get("/", charts.Index)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/version", health.Version)
		r.Mount("/charts", charts.Routes())
	})
	r.Get("/charts/{file}", charts.ServeChart)
	r.Get("/exports/{file}", charts.ServeExport)

	if tel != nil {
		r.Handle("/metrics", tel.MetricsHandler())
	}

	return &Server{cfg: cfg, router: r, logger: logger}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(ctx, "server listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.InfoContext(shutdownCtx, "shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
