package climate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Provider fetches current weather by region name.
type Provider interface {
	CurrentByRegion(ctx context.Context, region string) (*Observation, error)
	Name() string
}

// Cache stores observations by normalized region.
type Cache interface {
	Get(ctx context.Context, region string) (*Observation, error)
	Set(ctx context.Context, region string, obs *Observation, ttl time.Duration) error
}

// ServiceConfig holds configuration for the climate service.
type ServiceConfig struct {
	Provider Provider

	// Cache is optional. Without it every call reaches the provider.
	Cache Cache

	// Enabled gates lookups at runtime. Nil means always enabled.
	Enabled func(ctx context.Context) bool

	Logger zerolog.Logger
	Clock  func() time.Time

	// CacheTTL is how long an observation is considered fresh (default: 30 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 6 hours).
	StaleIfErrorTTL time.Duration
}

// Service provides cached climate hints. It implements the plan
// generator's climate source.
type Service struct {
	provider        Provider
	cache           Cache
	enabled         func(ctx context.Context) bool
	logger          zerolog.Logger
	clock           func() time.Time
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
}

// NewService creates a new climate service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	if cfg.StaleIfErrorTTL == 0 {
		cfg.StaleIfErrorTTL = 6 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		provider:        cfg.Provider,
		cache:           cfg.Cache,
		enabled:         cfg.Enabled,
		logger:          cfg.Logger,
		clock:           cfg.Clock,
		cacheTTL:        cfg.CacheTTL,
		staleIfErrorTTL: cfg.StaleIfErrorTTL,
	}
}

// ClimateHint returns the prompt line for region.
func (s *Service) ClimateHint(ctx context.Context, region string) (string, error) {
	obs, err := s.Current(ctx, region)
	if err != nil {
		return "", err
	}
	return obs.Hint(), nil
}

// Current returns the observation for region, from cache when fresh.
func (s *Service) Current(ctx context.Context, region string) (*Observation, error) {
	key := NormalizeRegion(region)
	if key == "" {
		return nil, ErrRegionRequired
	}
	if s.enabled != nil && !s.enabled(ctx) {
		return nil, ErrDisabled
	}

	cached := s.cached(ctx, key)
	now := s.clock()
	if cached != nil && now.Before(cached.FetchedAt.Add(s.cacheTTL)) {
		return cached, nil
	}

	s.logger.Debug().
		Str("region", key).
		Str("provider", s.provider.Name()).
		Msg("fetching climate from provider")

	obs, err := s.provider.CurrentByRegion(ctx, region)
	if err != nil {
		if cached != nil && now.Before(cached.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Err(err).
				Time("fetched_at", cached.FetchedAt).
				Msg("serving stale climate data due to provider error")
			return cached, nil
		}
		return nil, err
	}

	obs.FetchedAt = now
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, obs, s.staleIfErrorTTL); err != nil {
			s.logger.Warn().Err(err).Str("region", key).Msg("failed to cache climate observation")
		}
	}
	return obs, nil
}

func (s *Service) cached(ctx context.Context, key string) *Observation {
	if s.cache == nil {
		return nil
	}
	obs, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Debug().Err(err).Str("region", key).Msg("climate cache read failed")
		return nil
	}
	return obs
}
