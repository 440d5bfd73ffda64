// Package main provides the entrypoint for the DietlyPlans API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/api"
	"github.com/dietlyplans/dietly/internal/api/handler"
	"github.com/dietlyplans/dietly/internal/api/middleware"
	"github.com/dietlyplans/dietly/internal/app"
	"github.com/dietlyplans/dietly/internal/auth"
	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/billing/dodo"
	"github.com/dietlyplans/dietly/internal/database"
	"github.com/dietlyplans/dietly/internal/featureflags"
	"github.com/dietlyplans/dietly/internal/jobs"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
	"github.com/dietlyplans/dietly/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dietly-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
	if level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		log = log.Level(level)
	}

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DietlyPlans API")

	port := getEnv("PORT", "8080")
	env := getEnv("ENVIRONMENT", "development")

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version, env)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	pool, err := database.Connect(ctx, database.ConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}
	log.Info().Msg("database connected")

	readiness := map[string]handler.CheckFunc{
		"postgres": pool.Ping,
	}

	// Redis backs generation jobs and the climate cache; both are optional
	rdb, err := app.NewRedis(ctx, os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Msg("redis connected")
	}

	registry := resilience.NewRegistry()

	// Feature flags
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
	})

	// Bearer tokens are issued by the hosted identity provider
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT secret - not secure for production")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey:     jwtSecret,
		Issuer:         os.Getenv("JWT_ISSUER"),
		AllowAnonymous: os.Getenv("AUTH_ALLOW_ANONYMOUS") == "true",
	})

	// Plan generation
	generator, err := app.NewGenerator(ctx, app.GeneratorConfig{
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          os.Getenv("GEMINI_MODEL"),
		OpenWeatherMapAPIKey: os.Getenv("OPENWEATHERMAP_API_KEY"),
		Redis:                rdb,
		Flags:                ffService,
		Registry:             registry,
		Logger:               log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize plan generator")
	}
	planner := mealplan.NewPlanner(mealplan.PlannerConfig{
		Generator:  generator,
		Repository: mealplan.NewPostgresRepository(pool),
		Logger:     log,
	})

	// Billing
	billingCfg := billing.ServiceConfig{
		Repository: billing.NewPostgresRepository(pool),
		Products: map[billing.Tier]string{
			billing.TierOneMonth: os.Getenv("DODO_PRODUCT_ID_1M"),
			billing.TierFull:     os.Getenv("DODO_PRODUCT_ID_3M"),
		},
		WebhookSecret: os.Getenv("DODO_WEBHOOK_SECRET"),
		DefaultOrigin: os.Getenv("APP_ORIGIN"),
		Logger:        log,
	}
	if apiKey := os.Getenv("DODO_PAYMENTS_API_KEY"); apiKey != "" {
		httpCfg := resilience.DefaultClientConfig(dodo.ProviderName)
		httpCfg.Registry = registry
		billingCfg.Checkout = dodo.NewClient(dodo.ClientConfig{
			APIKey:     apiKey,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     log,
		})
	} else {
		log.Warn().Msg("DODO_PAYMENTS_API_KEY not set - checkout disabled")
	}
	billingService := billing.NewService(billingCfg)

	// Asynchronous generation needs both Redis and a Pub/Sub topic
	var jobService *jobs.Service
	projectID, topic := os.Getenv("PUBSUB_PROJECT_ID"), os.Getenv("PUBSUB_TOPIC")
	if rdb != nil && projectID != "" && topic != "" {
		publisher, err := jobs.NewPubSubPublisher(ctx, projectID, topic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize job publisher")
		}
		defer publisher.Close()

		jobService = jobs.NewService(jobs.ServiceConfig{
			Store:     jobs.NewRedisStore(rdb, jobs.DefaultTTL),
			Publisher: publisher,
			Logger:    log,
		})
		log.Info().Str("topic", topic).Msg("generation jobs enabled")
	} else {
		log.Warn().Msg("REDIS_URL or PUBSUB_* not set - asynchronous generation disabled")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Tokens:             jwtService,
		Planner:            planner,
		BillingService:     billingService,
		JobService:         jobService,
		FeatureFlagService: ffService,
		Registry:           registry,
		ReadinessChecks:    readiness,
		AdminUserIDs:       getEnvList("ADMIN_USER_IDS"),
		RequireTLS:         getEnv("REQUIRE_TLS", "false") == "true",
	})

	// Synchronous generation can run several drafting rounds
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getEnvList splits a comma-separated variable.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
