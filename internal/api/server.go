// Package api provides the HTTP REST API for querychat.
//
// Endpoints:
//
//	GET  /health                 → liveness probe
//	GET  /ready                  → readiness probe
//	POST /api/db/connect         → register a database connection for a session
//	POST /api/db/test            → probe credentials without registering
//	POST /api/chat/ask           → run one conversational analytics exchange
//	GET  /api/chat/suggestions   → exploration questions for a session
//	GET  /api/test/charts/{type} → chart showcase over fixture data
//	GET  /metrics                → Prometheus metrics
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, logging, metrics)
//   - ratelimit.go: per-IP token-bucket rate limiting
//   - db.go: connection registration endpoints
//   - chat.go: ask and suggestions endpoints
//   - charts.go: chart showcase endpoint
//   - health.go: health check endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/querychat/querychat/internal/chat"
	"github.com/querychat/querychat/internal/log"
	"github.com/querychat/querychat/internal/registry"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// LLM-backed exchanges can take a while, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Config contains the dependencies of the API server.
type Config struct {
	Registry  *registry.Registry // Required
	Chat      *chat.Service      // Required
	Logger    log.Logger         // Required
	RateBurst int                // Rate limiter burst size per IP (0 = default 60)
}

// Server is the querychat HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
	burst  int
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mux := http.NewServeMux()

	hh := &healthHandler{registry: cfg.Registry, logger: cfg.Logger}
	mux.HandleFunc("GET /health", hh.liveness)
	mux.HandleFunc("GET /ready", hh.readiness)

	dh := &dbHandler{registry: cfg.Registry, logger: cfg.Logger}
	mux.HandleFunc("POST /api/db/connect", dh.connect)
	mux.HandleFunc("POST /api/db/test", dh.test)

	ch := &chatHandler{service: cfg.Chat, logger: cfg.Logger}
	mux.HandleFunc("POST /api/chat/ask", ch.ask)
	mux.HandleFunc("GET /api/chat/suggestions", ch.suggestions)

	sh := &chartsHandler{logger: cfg.Logger}
	mux.HandleFunc("GET /api/test/charts/{type}", sh.showcase)

	mux.Handle("GET /metrics", promhttp.Handler())

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}

	return &Server{mux: mux, logger: cfg.Logger, burst: burst}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → metrics → rate limit → routes.
func (s *Server) Handler() http.Handler {
	rl := newRateLimiter(1.0, s.burst)
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		metricsMiddleware,
		rateLimitMiddleware(rl, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
