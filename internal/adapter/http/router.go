package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/adapter/http/handler"
	"github.com/iho/fintrack/internal/adapter/http/middleware"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
	"github.com/iho/fintrack/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EntryHandler    *handler.EntryHandler
	LedgerHandler   *handler.LedgerHandler
	CurrencyHandler *handler.CurrencyHandler
	HealthHandler   *handler.HealthHandler

	// Verifier authenticates bearer tokens. When nil, the owner comes from the X-Owner-ID header.
	Verifier middleware.TokenVerifier

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.Verifier))
		} else {
			r.Use(middleware.HeaderOwner)
		}

		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for creates; keys are scoped to the owner resolved above.
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", cfg.EntryHandler.List)
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Patch("/{id}", cfg.EntryHandler.Update)
			r.Delete("/{id}", cfg.EntryHandler.Delete)
		})

		r.Get("/balance", cfg.LedgerHandler.Balance)

		r.Route("/ledger", func(r chi.Router) {
			r.Post("/finalize", cfg.LedgerHandler.Finalize)
			r.Get("/summaries", cfg.LedgerHandler.Summaries)
			r.Get("/finalizations", cfg.LedgerHandler.Finalizations)
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
		})

		if cfg.CurrencyHandler != nil {
			r.Get("/currencies", cfg.CurrencyHandler.List)
		}
	})

	return r
}
