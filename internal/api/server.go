// Package api exposes the risk scoring service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/trustvault/riskd/internal/alerts"
	"github.com/trustvault/riskd/internal/domain"
	"github.com/trustvault/riskd/internal/history"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server with the full middleware stack.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, hist *history.Service, cache domain.Cache, bus domain.EventBus, engine *alerts.Engine, thresholds domain.RiskThresholds, version string) *Server {
	handler := NewHandler(repo, hist, cache, bus, engine, thresholds, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for dashboard clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Scoring
		r.Post("/risk-score", handler.Score)
		r.Post("/customers/score", handler.ScoreCustomer)

		// Score history
		r.Get("/scores", handler.ListScores)
		r.Delete("/scores", handler.ClearScores)
		r.Get("/scores/{customerId}", handler.GetCustomerScores)
		r.Get("/scores/{customerId}/latest", handler.GetLatestScore)

		// Intervention rule management
		r.Get("/alert-rules", handler.ListAlertRules)
		r.Get("/alert-rules/{id}", handler.GetAlertRule)
		r.Post("/alert-rules", handler.CreateAlertRule)
		r.Put("/alert-rules/{id}", handler.UpdateAlertRule)
		r.Delete("/alert-rules/{id}", handler.DeleteAlertRule)
		r.Post("/alert-rules/reload", handler.ReloadAlertRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
