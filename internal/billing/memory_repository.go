package billing

import (
	"context"
	"maps"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu           sync.RWMutex
	entitlements map[string]Entitlement
	activity     map[string][]Activity
}

// NewInMemoryRepository creates a new in-memory billing repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		entitlements: make(map[string]Entitlement),
		activity:     make(map[string][]Activity),
	}
}

// GetEntitlement returns the stored entitlement, or an unpaid one.
func (r *InMemoryRepository) GetEntitlement(_ context.Context, userID string) (*Entitlement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entitlements[userID]; ok {
		return &e, nil
	}
	return &Entitlement{UserID: userID, Tier: TierFree}, nil
}

// Grant marks the user paid and appends the activity entry.
func (r *InMemoryRepository) Grant(_ context.Context, userID string, tier Tier, activity Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entitlements[userID] = Entitlement{UserID: userID, IsPaid: true, Tier: tier}
	activity.UserID = userID
	activity.Metadata = maps.Clone(activity.Metadata)
	r.activity[userID] = append(r.activity[userID], activity)
	return nil
}

// ListActivity returns the user's activity entries, newest first.
func (r *InMemoryRepository) ListActivity(_ context.Context, userID string, limit int) ([]*Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.activity[userID]
	out := make([]*Activity, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		a := entries[i]
		a.Metadata = maps.Clone(a.Metadata)
		out = append(out, &a)
	}
	return out, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
