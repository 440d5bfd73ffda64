// Package jobs tracks asynchronous plan generation requests.
package jobs

import (
	"errors"
	"time"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

// Domain errors.
var (
	// ErrJobNotFound is returned for unknown, expired or foreign jobs.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueUnavailable is returned when no publisher is configured.
	ErrQueueUnavailable = errors.New("generation queue unavailable")
)

// JobTypeGenerate is the message type for plan generation.
const JobTypeGenerate = "plan.generate"

// DefaultTTL is how long a job stays readable after its last update.
const DefaultTTL = 24 * time.Hour

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the job will not change again.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is the observable state of a generation request.
type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Status    Status    `json:"status"`
	Progress  []string  `json:"progress"`
	PlanID    string    `json:"planId,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is the queue payload for a generation job.
type Message struct {
	JobType string            `json:"job_type"`
	JobID   string            `json:"job_id"`
	UserID  string            `json:"user_id"`
	Profile nutrition.Profile `json:"profile"`
}
