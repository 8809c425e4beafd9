package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/appointment-scheduler/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/appointment-scheduler/internal/http/middleware"
	"github.com/wolfman30/appointment-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	FulfillmentHandler *handlers.FulfillmentHandler
	StatsHandler       *handlers.StatsHandler
	MetricsHandler     http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.StatsHandler != nil {
		r.Get("/stats", cfg.StatsHandler.Handle)
	}
	if cfg.FulfillmentHandler != nil {
		r.Post("/lex/fulfillment", cfg.FulfillmentHandler.Handle)
	}

	return r
}
