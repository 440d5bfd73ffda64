package jobs

import (
	"context"
	"time"
)

// Store persists job state. Implementations must be safe for concurrent use.
type Store interface {
	// Create stores a new queued job.
	Create(ctx context.Context, job *Job) error

	// Get returns the job with its progress. Returns ErrJobNotFound when absent.
	Get(ctx context.Context, id string) (*Job, error)

	// SetStatus moves the job to status, recording the plan id or error message when given.
	SetStatus(ctx context.Context, id string, status Status, planID, errMsg string, at time.Time) error

	// AppendProgress adds one progress message.
	AppendProgress(ctx context.Context, id, msg string) error
}
