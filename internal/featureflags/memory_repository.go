package featureflags

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository keeps overrides in a map, for tests and local runs
// without Postgres.
type InMemoryRepository struct {
	mu        sync.RWMutex
	overrides map[string]Override
}

// NewInMemoryRepository returns a repository seeded with overrides.
func NewInMemoryRepository(seed ...Override) *InMemoryRepository {
	repo := &InMemoryRepository{overrides: make(map[string]Override, len(seed))}
	for _, o := range seed {
		repo.overrides[o.Key] = o
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context) ([]Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Override, 0, len(r.overrides))
	for _, o := range r.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *InMemoryRepository) Save(_ context.Context, overrides []Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range overrides {
		r.overrides[o.Key] = o
	}
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overrides[key]; !ok {
		return ErrFlagNotFound
	}
	delete(r.overrides, key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
