package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/observability"
	"github.com/miminai/mimin/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	health := s.healthHandlers()
	s.router.Get("/health", health.aggregate)
	s.router.Get("/health/live", health.live)
	s.router.Get("/health/ready", health.ready)
	s.router.Get("/health/startup", health.startup)

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", MetricsHandler)

	if api := s.opts.API; api != nil {
		s.router.Get("/", api.Index)
		s.router.Route("/api", func(r chi.Router) {
			r.Get("/ask", api.Ask)
			r.Post("/ask", api.Ask)
			r.Get("/health", api.Health)
			r.Get("/test", api.Test)
			r.Get("/fetch", api.Fetch)
		})
	}

	s.registerAdminEndpoint()
}

type healthRoutes struct {
	aggregate, live, ready, startup http.HandlerFunc
}

// healthHandlers falls back to a manager with no checks, which always
// reports healthy.
func (s *Server) healthHandlers() healthRoutes {
	hm := s.opts.Health
	if hm == nil {
		hm = handlers.NewHealthManager(handlers.AppVersion)
	}
	return healthRoutes{hm.HealthHandler, hm.LivenessHandler, hm.ReadinessHandler, hm.StartupHandler}
}

// registerAdminEndpoint optionally registers the admin signal endpoint
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.opts.AdminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no server.admin_token set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: 10,  // 10 requests per minute
		RateBurst: 5,   // burst size
		Manager:   nil, // use default global manager
	})

	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
