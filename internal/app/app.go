// Package app assembles the plan generation stack shared by the API server
// and the generation worker.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/climate"
	"github.com/dietlyplans/dietly/internal/climate/openweathermap"
	"github.com/dietlyplans/dietly/internal/featureflags"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/mealplan/gemini"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
	"github.com/dietlyplans/dietly/internal/telemetry"
)

const meterName = "github.com/dietlyplans/dietly/internal/mealplan"

// GeneratorConfig holds what the plan generator needs from the environment.
type GeneratorConfig struct {
	GeminiAPIKey string
	GeminiModel  string

	// OpenWeatherMapAPIKey enables climate hints. Empty disables them.
	OpenWeatherMapAPIKey string

	// Redis caches climate observations when set.
	Redis *redis.Client

	Flags    *featureflags.Service
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// NewGenerator builds the plan generation service. A missing Gemini key is
// not an error here: the service then answers every request with
// mealplan.ErrDrafterNotConfigured.
func NewGenerator(ctx context.Context, cfg GeneratorConfig) (*mealplan.Service, error) {
	recorder, err := telemetry.NewGenerationRecorder(telemetry.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("creating generation metrics: %w", err)
	}

	svcCfg := mealplan.ServiceConfig{
		Recorder: recorder,
		Logger:   cfg.Logger,
	}
	if cfg.Flags != nil {
		svcCfg.Switch = cfg.Flags
	}

	if cfg.GeminiAPIKey != "" {
		drafter, err := gemini.New(ctx, gemini.Config{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Registry: cfg.Registry,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini drafter: %w", err)
		}
		svcCfg.Drafter = drafter
	} else {
		cfg.Logger.Warn().Msg("GEMINI_API_KEY not set - plan generation will be refused")
	}

	if cfg.OpenWeatherMapAPIKey != "" {
		svcCfg.Climate = NewClimate(cfg)
	}

	return mealplan.NewService(svcCfg), nil
}

// NewClimate builds the cached climate hint source.
func NewClimate(cfg GeneratorConfig) *climate.Service {
	httpCfg := resilience.DefaultClientConfig(openweathermap.ProviderName)
	httpCfg.Registry = cfg.Registry

	climateCfg := climate.ServiceConfig{
		Provider: openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey:     cfg.OpenWeatherMapAPIKey,
			HTTPClient: resilience.NewClient(httpCfg),
			Logger:     cfg.Logger,
		}),
		Logger: cfg.Logger,
	}
	if cfg.Redis != nil {
		climateCfg.Cache = climate.NewRedisCache(cfg.Redis)
	}
	if cfg.Flags != nil {
		climateCfg.Enabled = cfg.Flags.IsClimateHintsEnabled
	}
	return climate.NewService(climateCfg)
}

// NewRedis connects to Redis from a redis:// URL. An empty URL returns nil.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
