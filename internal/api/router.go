// Package api provides the ops HTTP surface of the preflight worker.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/api/handler"
	"github.com/dailycast/dailycast/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Analyzer  handler.HistoryAnalyzer
}

// NewRouter creates a new chi router with the ops routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Analyzer)

	r.Route("/v1/ops", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(middleware.OpsRateLimit))
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/status", opsHandler.Status)
		r.Get("/history", opsHandler.History)
	})

	return r
}
