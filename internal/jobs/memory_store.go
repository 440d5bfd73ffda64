package jobs

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is an in-memory Store for tests and local runs. Jobs never expire.
type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[string]*Job)}
}

func copyJob(j *Job) *Job {
	cpy := *j
	cpy.Progress = append([]string(nil), j.Progress...)
	return &cpy
}

// Create stores a new job.
func (s *InMemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// Get returns a copy of the job.
func (s *InMemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job), nil
}

// SetStatus updates the job status.
func (s *InMemoryStore) SetStatus(_ context.Context, id string, status Status, planID, errMsg string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	if planID != "" {
		job.PlanID = planID
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	job.UpdatedAt = at
	return nil
}

// AppendProgress adds a progress message.
func (s *InMemoryStore) AppendProgress(_ context.Context, id, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Progress = append(job.Progress, msg)
	return nil
}

var _ Store = (*InMemoryStore)(nil)
