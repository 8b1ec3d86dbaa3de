package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/observability"
	"github.com/miminai/mimin/internal/server/handlers"
	servermw "github.com/miminai/mimin/internal/server/middleware"
)

// Options configures the HTTP server.
type Options struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// CORSOrigins lists browser origins allowed to call /api. "*" allows all.
	CORSOrigins []string

	// AdminToken enables POST /admin/signal when set.
	AdminToken string

	// API serves the question answering routes. Nil leaves only the
	// operational endpoints mounted.
	API *handlers.API

	// Health runs the registered checks behind /health*. Nil uses the
	// global manager.
	Health *handlers.HealthManager
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
}

// New creates a new HTTP server instance
func New(opts Options) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// RequestID → Metrics → CORS → Recovery
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	if len(opts.CORSOrigins) > 0 {
		r.Use(servermw.CORS(opts.CORSOrigins))
	}
	r.Use(servermw.Recovery)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	s := &Server{
		router: r,
		opts:   opts,
	}

	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  orDuration(s.opts.ReadTimeout, 30*time.Second),
		WriteTimeout: orDuration(s.opts.WriteTimeout, 90*time.Second),
		IdleTimeout:  orDuration(s.opts.IdleTimeout, 120*time.Second),
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.opts.Host),
			zap.Int("port", s.opts.Port),
			zap.String("addr", addr))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.opts.Port
}

func orDuration(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
