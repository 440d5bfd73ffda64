package mealplan

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	current map[string]*PlanRecord
	history map[string][]*HistoryEntry
}

// NewInMemoryRepository creates a new in-memory plan repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		current: make(map[string]*PlanRecord),
		history: make(map[string][]*HistoryEntry),
	}
}

// SaveCurrent upserts the current plan and appends a history entry.
func (r *InMemoryRepository) SaveCurrent(_ context.Context, record *PlanRecord) error {
	cpy, err := copyRecord(record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.current[record.UserID]; ok {
		cpy.CreatedAt = existing.CreatedAt
	}
	r.current[record.UserID] = cpy
	r.history[record.UserID] = append(r.history[record.UserID], Summarize(record))
	return nil
}

// GetCurrent retrieves the user's current plan.
func (r *InMemoryRepository) GetCurrent(_ context.Context, userID string) (*PlanRecord, error) {
	r.mu.RLock()
	rec, ok := r.current[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrPlanNotFound
	}

	// Return a copy
	return copyRecord(rec)
}

// ListHistory returns archived plan summaries, newest first.
func (r *InMemoryRepository) ListHistory(_ context.Context, userID string, opts HistoryOptions) ([]*HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.history[userID]
	entries := make([]*HistoryEntry, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		cpy := *e
		cpy.PhaseNames = append([]string(nil), e.PhaseNames...)
		entries = append(entries, &cpy)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })

	if len(entries) > opts.limit() {
		entries = entries[:opts.limit()]
	}
	return entries, nil
}

func copyRecord(rec *PlanRecord) (*PlanRecord, error) {
	cpy := *rec
	if rec.Data != nil {
		data, err := rec.Data.Clone()
		if err != nil {
			return nil, err
		}
		cpy.Data = data
	}
	return &cpy, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
