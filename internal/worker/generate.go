package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/jobs"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/nutrition"
)

// PlanCreator generates and stores a plan.
type PlanCreator interface {
	CreatePlan(ctx context.Context, userID string, profile nutrition.Profile, progress func(string)) (*mealplan.PlanRecord, error)
}

// JobTracker records job state transitions.
type JobTracker interface {
	Get(ctx context.Context, userID, id string) (*jobs.Job, error)
	Start(ctx context.Context, id string) error
	Progress(ctx context.Context, id string) func(string)
	Complete(ctx context.Context, id, planID string) error
	Fail(ctx context.Context, id, msg string) error
}

// GenerateJobConfig holds dependencies for the generation handler.
type GenerateJobConfig struct {
	Planner PlanCreator
	Jobs    JobTracker
	Timeout time.Duration
	Logger  zerolog.Logger
}

// GenerateJob runs plan.generate messages.
type GenerateJob struct {
	planner PlanCreator
	jobs    JobTracker
	timeout time.Duration
	logger  zerolog.Logger
}

// NewGenerateJob creates the generation handler.
func NewGenerateJob(cfg GenerateJobConfig) *GenerateJob {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().JobTimeout
	}
	return &GenerateJob{
		planner: cfg.Planner,
		jobs:    cfg.Jobs,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Handle runs one job. A nil return means the message can be acknowledged;
// an error asks for redelivery.
func (g *GenerateJob) Handle(ctx context.Context, msg jobs.Message) error {
	logger := g.logger.With().Str("job_id", msg.JobID).Str("user_id", msg.UserID).Logger()

	job, err := g.jobs.Get(ctx, msg.UserID, msg.JobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		logger.Warn().Msg("job expired or unknown, dropping message")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading job: %w", err)
	}
	if job.Status.Terminal() {
		logger.Debug().Str("status", string(job.Status)).Msg("job already finished")
		return nil
	}

	if err := g.jobs.Start(ctx, msg.JobID); err != nil {
		return fmt.Errorf("starting job: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	record, err := g.planner.CreatePlan(runCtx, msg.UserID, msg.Profile, g.jobs.Progress(ctx, msg.JobID))
	switch {
	case err == nil:
	case ctx.Err() != nil:
		// shutting down; leave the job running so the redelivery picks it up
		return ctx.Err()
	default:
		logger.Warn().Err(err).Msg("plan generation failed")
		if ferr := g.jobs.Fail(ctx, msg.JobID, failureMessage(err)); ferr != nil {
			return fmt.Errorf("marking job failed: %w", ferr)
		}
		return nil
	}

	if err := g.jobs.Complete(ctx, msg.JobID, record.ID); err != nil {
		return fmt.Errorf("completing job: %w", err)
	}
	logger.Info().Str("plan_id", record.ID).Msg("plan job completed")
	return nil
}

// failureMessage keeps user-facing errors and hides internal ones.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, nutrition.ErrSafetyBlock):
		return nutrition.ErrSafetyBlock.Error()
	case errors.Is(err, nutrition.ErrInvalidProfile), mealplan.IsConfigError(err):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "plan generation timed out"
	default:
		return "plan generation failed"
	}
}
