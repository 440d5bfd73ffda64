package featureflags

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	CacheTTL   time.Duration // default 30s
	Clock      func() time.Time
}

// Service evaluates switches against stored overrides. Overrides are loaded
// as one snapshot and cached; when the store is unreachable the last snapshot
// keeps serving, or the catalog defaults if none was ever loaded.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	snapshot map[string]Override
	loadedAt time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: cfg.Repository, logger: cfg.Logger, ttl: ttl, now: clock}
}

func (s *Service) overrides(ctx context.Context) map[string]Override {
	s.mu.RLock()
	snap, fresh := s.snapshot, s.snapshot != nil && s.now().Sub(s.loadedAt) < s.ttl
	s.mu.RUnlock()
	if fresh {
		return snap
	}

	list, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Bool("stale", snap != nil).Msg("feature flag store unavailable")
		return snap
	}

	loaded := make(map[string]Override, len(list))
	for _, o := range list {
		loaded[o.Key] = o
	}
	s.mu.Lock()
	s.snapshot, s.loadedAt = loaded, s.now()
	s.mu.Unlock()
	return loaded
}

// Flag evaluates one switch.
func (s *Service) Flag(ctx context.Context, key string) (Flag, error) {
	def, err := Lookup(key)
	if err != nil {
		return Flag{}, err
	}
	return s.evaluate(def, s.overrides(ctx)), nil
}

// All evaluates every switch in catalog order.
func (s *Service) All(ctx context.Context) []Flag {
	current := s.overrides(ctx)
	flags := make([]Flag, 0, len(catalog))
	for _, def := range catalog {
		flags = append(flags, s.evaluate(def, current))
	}
	return flags
}

func (s *Service) evaluate(def Definition, current map[string]Override) Flag {
	if o, ok := current[def.Key]; ok {
		return evaluate(def, &o)
	}
	return evaluate(def, nil)
}

// IsEnabled reports whether a switch is on. Unknown keys are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	f, err := s.Flag(ctx, key)
	return err == nil && f.Enabled
}

// SetFlags stores overrides for every update, recording actor as the author.
// Nothing is written when any key is unknown.
func (s *Service) SetFlags(ctx context.Context, updates []FlagUpdate, actor string) ([]Flag, error) {
	now := s.now()
	overrides := make([]Override, 0, len(updates))
	defs := make([]Definition, 0, len(updates))
	for _, u := range updates {
		def, err := Lookup(u.Key)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		overrides = append(overrides, Override{Key: u.Key, Enabled: u.Enabled, UpdatedAt: now, UpdatedBy: actor})
	}

	if err := s.repo.Save(ctx, overrides); err != nil {
		return nil, fmt.Errorf("saving feature flags: %w", err)
	}
	s.InvalidateCache()

	flags := make([]Flag, len(overrides))
	for i := range overrides {
		flags[i] = evaluate(defs[i], &overrides[i])
		s.logger.Info().
			Str("flag", flags[i].Key).
			Bool("enabled", flags[i].Enabled).
			Str("actor", actor).
			Msg("feature flag overridden")
	}
	return flags, nil
}

// ResetFlag deletes the override so the default applies again.
func (s *Service) ResetFlag(ctx context.Context, key string) error {
	if _, err := Lookup(key); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return err
		}
		return fmt.Errorf("resetting feature flag: %w", err)
	}
	s.InvalidateCache()
	s.logger.Info().Str("flag", key).Msg("feature flag reset to default")
	return nil
}

// InvalidateCache forces the next read to reload from the store. A reload
// failure still falls back to the dropped snapshot.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedAt = time.Time{}
}

// IsFallbackForced returns true if drafting is switched off.
func (s *Service) IsFallbackForced(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagForceFallback)
}

// IsAsyncGenerationEnabled returns true if queued generation is accepted.
func (s *Service) IsAsyncGenerationEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagAsyncGeneration)
}

// IsCheckoutEnabled returns true if checkout sessions may be created.
func (s *Service) IsCheckoutEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagCheckoutEnabled)
}

// IsClimateHintsEnabled returns true if prompts may include the weather line.
func (s *Service) IsClimateHintsEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagClimateHints)
}
