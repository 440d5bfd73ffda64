// Package api provides the HTTP API for DietlyPlans.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/api/handler"
	"github.com/dietlyplans/dietly/internal/api/middleware"
	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/featureflags"
	"github.com/dietlyplans/dietly/internal/jobs"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Tokens validates bearer tokens from the identity provider.
	Tokens middleware.TokenValidator

	Planner            *mealplan.Planner
	BillingService     *billing.Service
	JobService         *jobs.Service
	FeatureFlagService *featureflags.Service

	// Registry and ReadinessChecks feed GET /v1/ops/ready.
	Registry        *resilience.Registry
	ReadinessChecks map[string]handler.CheckFunc

	// AdminUserIDs may manage feature flags.
	AdminUserIDs []string

	// RequireTLS rejects plain-HTTP traffic forwarded by the load balancer.
	RequireTLS bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "dietly-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON) // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Checks:    cfg.ReadinessChecks,
	})
	planHandler := handler.NewPlanHandler(cfg.Planner, cfg.BillingService, cfg.Logger)
	jobHandler := handler.NewJobHandler(cfg.JobService, cfg.FeatureFlagService, cfg.Logger)
	billingHandler := handler.NewBillingHandler(cfg.BillingService, cfg.FeatureFlagService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Tokens)

	// Per-user limits run after auth so they key on the caller
	generationRateLimit := middleware.RateLimitByUser(middleware.GenerationRateLimit) // 5 req/min
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)     // 100 req/min
	webhookRateLimit := middleware.RateLimitByIP(middleware.WebhookRateLimit)         // 60 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Plans (authenticated)
		r.Route("/plans", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireJSON)
			r.With(generationRateLimit).Post("/", planHandler.CreatePlan)
			r.With(standardRateLimit).Get("/current", planHandler.GetCurrentPlan)
			r.With(standardRateLimit).Get("/history", planHandler.ListHistory)

			r.Route("/jobs", func(r chi.Router) {
				r.With(generationRateLimit).Post("/", jobHandler.CreateJob)
				r.With(standardRateLimit).Get("/{jobId}", jobHandler.GetJob)
			})
		})

		// Billing - the webhook authenticates by signature instead of bearer token
		r.Route("/billing", func(r chi.Router) {
			r.With(webhookRateLimit).Post("/webhook", billingHandler.Webhook)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(standardRateLimit)
				r.With(middleware.RequireJSON).Post("/checkout", billingHandler.CreateCheckout)
				r.Get("/entitlement", billingHandler.GetEntitlement)
			})
		})

		// Evaluated flags for clients (authenticated)
		r.With(authMiddleware, standardRateLimit).Get("/feature-flags", featureFlagsHandler.GetFeatureFlags)

		// Admin endpoints (authenticated + allowlisted)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin(cfg.AdminUserIDs))
			r.Use(standardRateLimit)
			r.Use(middleware.RequireJSON)

			r.Route("/flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Delete("/{key}", featureFlagsHandler.ResetFeatureFlag)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
