package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/goexpense/internal/adapter/http/handler"
	"github.com/iho/goexpense/internal/adapter/http/middleware"
	"github.com/iho/goexpense/internal/domain"
	"github.com/iho/goexpense/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ExpenseHandler *handler.ExpenseHandler
	ManagerHandler *handler.ManagerHandler
	LedgerHandler  *handler.LedgerHandler
	UserHandler    *handler.UserHandler
	HealthHandler  *handler.HealthHandler

	// Authenticator resolves the caller; nil leaves every request anonymous.
	Authenticator *middleware.Authenticator

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	authenticator := cfg.Authenticator
	if authenticator == nil {
		authenticator = middleware.NewAuthenticator(nil, nil)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Authenticate)
		r.Use(middleware.RequireAuthenticated)

		// Idempotency keys are scoped per principal, so this runs after auth.
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Get("/me", cfg.UserHandler.Me)
		r.Get("/categories", cfg.ExpenseHandler.Categories)

		// Employee expenses
		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", cfg.ExpenseHandler.Submit)
			r.Get("/my", cfg.ExpenseHandler.ListMine)
			r.Get("/{id}", cfg.ExpenseHandler.Get)
			r.Get("/{id}/history", cfg.ExpenseHandler.History)
		})

		// Manager review
		r.Route("/manager", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleManager))

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", cfg.ManagerHandler.List)
				r.Get("/pending", cfg.ManagerHandler.Pending)
				r.Post("/{id}/decision", cfg.ManagerHandler.Decide)
				r.Get("/{id}/decision", cfg.ManagerHandler.LatestDecision)
				r.Get("/{id}/history", cfg.ManagerHandler.History)
			})

			r.Get("/approvals", cfg.ManagerHandler.MyDecisions)
			r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", cfg.UserHandler.List)
				r.Post("/", cfg.UserHandler.Create)
			})
		})
	})

	return r
}
