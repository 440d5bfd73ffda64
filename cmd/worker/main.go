// Package main provides the entrypoint for the DietlyPlans generation worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dietlyplans/dietly/internal/app"
	"github.com/dietlyplans/dietly/internal/database"
	"github.com/dietlyplans/dietly/internal/featureflags"
	"github.com/dietlyplans/dietly/internal/jobs"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
	"github.com/dietlyplans/dietly/internal/telemetry"
	"github.com/dietlyplans/dietly/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "dietly-worker"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
	if level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		log = log.Level(level)
	}

	log.Info().Str("build_time", BuildTime).Msg("starting DietlyPlans worker")

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
	log.Info().Msg("worker stopped")
}

func run(log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Worker also exposes health endpoint for Cloud Run
	port := getEnv("PORT", "8080")

	tp, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(serviceName, Version, getEnv("ENVIRONMENT", "development")))
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	pool, err := database.Connect(ctx, database.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	rdb, err := app.NewRedis(ctx, os.Getenv("REDIS_URL"))
	if err != nil {
		return err
	}
	if rdb == nil {
		return errors.New("REDIS_URL is required")
	}
	defer rdb.Close()

	registry := resilience.NewRegistry()
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
	})

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
		return err
	}

	cfg := worker.DefaultConfig()
	cfg.ProjectID = os.Getenv("PUBSUB_PROJECT_ID")
	cfg.SubscriptionName = getEnv("PUBSUB_SUBSCRIPTION", "plan-generation-worker")

	generate := worker.NewGenerateJob(worker.GenerateJobConfig{
		Planner: mealplan.NewPlanner(mealplan.PlannerConfig{
			Generator:  generator,
			Repository: mealplan.NewPostgresRepository(pool),
			Logger:     log,
		}),
		Jobs: jobs.NewService(jobs.ServiceConfig{
			Store:  jobs.NewRedisStore(rdb, jobs.DefaultTTL),
			Logger: log,
		}),
		Timeout: cfg.JobTimeout,
		Logger:  log,
	})

	consumer, err := worker.NewConsumer(ctx, worker.ConsumerConfig{
		Config:   cfg,
		Generate: generate,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	defer consumer.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !registry.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"degraded","version":%q}`, Version)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":%q}`, Version)
	})
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := consumer.Run(gctx); err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		if gctx.Err() == nil {
			return errors.New("receive stopped unexpectedly")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down worker")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
