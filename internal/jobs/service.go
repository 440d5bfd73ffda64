package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

// ServiceConfig holds configuration for the job service.
type ServiceConfig struct {
	Store     Store
	Publisher Publisher
	Logger    zerolog.Logger
	Clock     func() time.Time
	NewID     func() string
}

// Service creates and tracks generation jobs.
type Service struct {
	store     Store
	publisher Publisher
	logger    zerolog.Logger
	clock     func() time.Time
	newID     func() string
}

// NewService creates a job service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Service{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
		newID:     cfg.NewID,
	}
}

// Enqueue records a queued job and publishes it. The profile must already be valid.
func (s *Service) Enqueue(ctx context.Context, userID string, profile nutrition.Profile) (*Job, error) {
	if s.publisher == nil {
		return nil, ErrQueueUnavailable
	}

	now := s.clock()
	job := &Job{
		ID:        s.newID(),
		UserID:    userID,
		Status:    StatusQueued,
		Progress:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	err := s.publisher.Publish(ctx, Message{
		JobType: JobTypeGenerate,
		JobID:   job.ID,
		UserID:  userID,
		Profile: profile,
	})
	if err != nil {
		if serr := s.store.SetStatus(ctx, job.ID, StatusFailed, "", "could not queue generation", s.clock()); serr != nil {
			s.logger.Warn().Err(serr).Str("job_id", job.ID).Msg("failed to mark unpublished job")
		}
		return nil, fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}

	s.logger.Info().Str("job_id", job.ID).Str("user_id", userID).Msg("generation job queued")
	return job, nil
}

// Get returns the job if it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Job, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Start marks the job running.
func (s *Service) Start(ctx context.Context, id string) error {
	return s.store.SetStatus(ctx, id, StatusRunning, "", "", s.clock())
}

// Progress returns a callback that appends messages to the job. Store
// failures are logged and never interrupt generation.
func (s *Service) Progress(ctx context.Context, id string) func(string) {
	return func(msg string) {
		if err := s.store.AppendProgress(ctx, id, msg); err != nil {
			s.logger.Warn().Err(err).Str("job_id", id).Msg("failed to record progress")
		}
	}
}

// Complete marks the job done with the stored plan id.
func (s *Service) Complete(ctx context.Context, id, planID string) error {
	return s.store.SetStatus(ctx, id, StatusDone, planID, "", s.clock())
}

// Fail marks the job failed with a user-facing message.
func (s *Service) Fail(ctx context.Context, id, msg string) error {
	return s.store.SetStatus(ctx, id, StatusFailed, "", msg, s.clock())
}
