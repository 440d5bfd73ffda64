package mealplan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

// Generator produces a plan from a profile.
type Generator interface {
	Generate(ctx context.Context, input nutrition.Profile, progress func(string)) (*PlanResult, error)
}

// PlannerConfig holds configuration for the planner.
type PlannerConfig struct {
	Generator  Generator
	Repository Repository
	Logger     zerolog.Logger
	Clock      func() time.Time
	NewID      func() string
}

// Planner generates plans for a user and stores them as the current plan.
type Planner struct {
	gen    Generator
	repo   Repository
	logger zerolog.Logger
	clock  func() time.Time
	newID  func() string
}

// NewPlanner creates a planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Planner{
		gen:    cfg.Generator,
		repo:   cfg.Repository,
		logger: cfg.Logger,
		clock:  cfg.Clock,
		newID:  cfg.NewID,
	}
}

// CreatePlan generates a plan and saves it as the user's current plan.
func (p *Planner) CreatePlan(ctx context.Context, userID string, profile nutrition.Profile, progress func(string)) (*PlanRecord, error) {
	result, err := p.gen.Generate(ctx, profile, progress)
	if err != nil {
		return nil, err
	}

	now := p.clock()
	record := &PlanRecord{
		ID:        p.newID(),
		UserID:    userID,
		Data:      result,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.repo.SaveCurrent(ctx, record); err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	p.logger.Info().
		Str("user_id", userID).
		Str("plan_id", record.ID).
		Str("mode", string(result.Mode)).
		Msg("plan stored")
	return record, nil
}

// Current returns the user's current plan.
func (p *Planner) Current(ctx context.Context, userID string) (*PlanRecord, error) {
	return p.repo.GetCurrent(ctx, userID)
}

// History returns the user's archived plans.
func (p *Planner) History(ctx context.Context, userID string, opts HistoryOptions) ([]*HistoryEntry, error) {
	return p.repo.ListHistory(ctx, userID, opts)
}
