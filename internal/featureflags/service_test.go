package featureflags_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/featureflags"
)

// flakyRepository fails List while down is set and counts calls.
type flakyRepository struct {
	*featureflags.InMemoryRepository
	down  atomic.Bool
	lists atomic.Int32
}

func (r *flakyRepository) List(ctx context.Context) ([]featureflags.Override, error) {
	r.lists.Add(1)
	if r.down.Load() {
		return nil, errors.New("connection refused")
	}
	return r.InMemoryRepository.List(ctx)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newService(repo featureflags.Repository, c *clock) *featureflags.Service {
	cfg := featureflags.ServiceConfig{Repository: repo, Logger: zerolog.Nop(), CacheTTL: time.Minute}
	if c != nil {
		cfg.Clock = c.Now
	}
	return featureflags.NewService(cfg)
}

func TestService_Defaults(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	if service.IsFallbackForced(ctx) {
		t.Error("expected force_fallback to be off by default")
	}
	if !service.IsAsyncGenerationEnabled(ctx) {
		t.Error("expected async_generation to be on by default")
	}
	if !service.IsCheckoutEnabled(ctx) {
		t.Error("expected checkout_enabled to be on by default")
	}
	if !service.IsClimateHintsEnabled(ctx) {
		t.Error("expected climate_hints to be on by default")
	}
	if service.IsEnabled(ctx, "beta_banner") {
		t.Error("expected unknown flag to be off")
	}
}

func TestService_SetFlags(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	service := newService(featureflags.NewInMemoryRepository(), &clock{now: now})
	ctx := context.Background()

	flags, err := service.SetFlags(ctx, []featureflags.FlagUpdate{
		{Key: featureflags.FlagForceFallback, Enabled: true},
		{Key: featureflags.FlagCheckoutEnabled, Enabled: false},
	}, "admin-1")
	if err != nil {
		t.Fatalf("SetFlags() error: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(flags))
	}
	if !flags[0].Overridden || flags[0].UpdatedBy != "admin-1" || !flags[0].UpdatedAt.Equal(now) {
		t.Errorf("expected stamped override, got %+v", flags[0])
	}
	if flags[1].Default != true || flags[1].Enabled {
		t.Errorf("expected checkout override off over default on, got %+v", flags[1])
	}

	if !service.IsFallbackForced(ctx) {
		t.Error("expected force_fallback to be on")
	}
	if service.IsCheckoutEnabled(ctx) {
		t.Error("expected checkout to be off")
	}
}

func TestService_SetFlagsRejectsUnknownKey(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, nil)
	ctx := context.Background()

	_, err := service.SetFlags(ctx, []featureflags.FlagUpdate{
		{Key: featureflags.FlagForceFallback, Enabled: true},
		{Key: "beta_banner", Enabled: true},
	}, "admin-1")
	if !errors.Is(err, featureflags.ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}

	stored, _ := repo.List(ctx)
	if len(stored) != 0 {
		t.Errorf("expected nothing written, got %d overrides", len(stored))
	}
}

func TestService_AllInCatalogOrder(t *testing.T) {
	repo := featureflags.NewInMemoryRepository(featureflags.Override{
		Key: featureflags.FlagClimateHints, Enabled: false, UpdatedBy: "admin-2",
	})
	flags := newService(repo, nil).All(context.Background())

	catalog := featureflags.Catalog()
	if len(flags) != len(catalog) {
		t.Fatalf("expected %d flags, got %d", len(catalog), len(flags))
	}
	for i, f := range flags {
		if f.Key != catalog[i].Key {
			t.Errorf("flag %d: expected %s, got %s", i, catalog[i].Key, f.Key)
		}
		if f.Key == featureflags.FlagClimateHints && (f.Enabled || !f.Overridden || f.UpdatedBy != "admin-2") {
			t.Errorf("expected stored override for climate_hints, got %+v", f)
		}
		if f.Key != featureflags.FlagClimateHints && f.Overridden {
			t.Errorf("expected %s to use its default", f.Key)
		}
	}
}

func TestService_CachesSnapshot(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	service := newService(repo, c)
	ctx := context.Background()

	if service.IsFallbackForced(ctx) {
		t.Fatal("expected default")
	}
	// behind the service's back
	_ = repo.Save(ctx, []featureflags.Override{{Key: featureflags.FlagForceFallback, Enabled: true}})

	service.IsCheckoutEnabled(ctx)
	if service.IsFallbackForced(ctx) {
		t.Error("expected cached snapshot within TTL")
	}
	if got := repo.lists.Load(); got != 1 {
		t.Errorf("expected one store read, got %d", got)
	}

	c.now = c.now.Add(2 * time.Minute)
	if !service.IsFallbackForced(ctx) {
		t.Error("expected fresh value after TTL")
	}
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, nil)
	ctx := context.Background()

	service.IsFallbackForced(ctx)
	_ = repo.Save(ctx, []featureflags.Override{{Key: featureflags.FlagForceFallback, Enabled: true}})

	service.InvalidateCache()
	if !service.IsFallbackForced(ctx) {
		t.Error("expected repository value after invalidation")
	}
}

func TestService_ServesStaleSnapshotWhenStoreDown(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository(
		featureflags.Override{Key: featureflags.FlagCheckoutEnabled, Enabled: false},
	)}
	service := newService(repo, c)
	ctx := context.Background()

	if service.IsCheckoutEnabled(ctx) {
		t.Fatal("expected stored override")
	}

	repo.down.Store(true)
	c.now = c.now.Add(time.Hour)
	if service.IsCheckoutEnabled(ctx) {
		t.Error("expected the last snapshot to keep serving while the store is down")
	}
}

func TestService_DefaultsWhenStoreNeverReached(t *testing.T) {
	repo := &flakyRepository{InMemoryRepository: featureflags.NewInMemoryRepository()}
	repo.down.Store(true)
	service := newService(repo, nil)

	if !service.IsCheckoutEnabled(context.Background()) {
		t.Error("expected default when repository is unavailable")
	}
	if n := len(service.All(context.Background())); n != len(featureflags.Catalog()) {
		t.Errorf("expected every catalog flag, got %d", n)
	}
}

func TestService_ResetFlag(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	_, _ = service.SetFlags(ctx, []featureflags.FlagUpdate{{Key: featureflags.FlagAsyncGeneration, Enabled: false}}, "admin-1")
	if service.IsAsyncGenerationEnabled(ctx) {
		t.Fatal("expected async generation to be off")
	}

	if err := service.ResetFlag(ctx, featureflags.FlagAsyncGeneration); err != nil {
		t.Fatalf("ResetFlag() error: %v", err)
	}
	if !service.IsAsyncGenerationEnabled(ctx) {
		t.Error("expected default after reset")
	}

	if err := service.ResetFlag(ctx, featureflags.FlagAsyncGeneration); !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound, got %v", err)
	}
	if err := service.ResetFlag(ctx, "beta_banner"); !errors.Is(err, featureflags.ErrUnknownFlag) {
		t.Errorf("expected ErrUnknownFlag, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	def, err := featureflags.Lookup(featureflags.FlagForceFallback)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if def.Default || def.Description == "" {
		t.Errorf("unexpected definition %+v", def)
	}

	if _, err := featureflags.Lookup("Force_Fallback"); !errors.Is(err, featureflags.ErrUnknownFlag) {
		t.Errorf("expected keys to be case-sensitive, got %v", err)
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	c := featureflags.Catalog()
	c[0].Default = !c[0].Default

	if featureflags.Catalog()[0].Default == c[0].Default {
		t.Error("expected catalog to be immutable through the returned slice")
	}
}
