package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "plan:job:"

// RedisStore keeps each job as a hash at plan:job:<id> with its progress
// messages in a list at plan:job:<id>:progress. Both keys share the TTL,
// which is refreshed on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func jobKey(id string) string      { return keyPrefix + id }
func progressKey(id string) string { return keyPrefix + id + ":progress" }

// Create stores a new job.
func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	key := jobKey(job.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", job.UserID,
			"status", string(job.Status),
			"plan_id", job.PlanID,
			"error", job.Error,
			"created_at", job.CreatedAt.UTC().Format(time.RFC3339Nano),
			"updated_at", job.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating job %s: %w", job.ID, err)
	}
	return nil
}

// Get returns the job with its progress.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	var (
		fields   *redis.MapStringStringCmd
		progress *redis.StringSliceCmd
	)
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, jobKey(id))
		progress = pipe.LRange(ctx, progressKey(id), 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("loading job %s: %w", id, err)
	}

	h := fields.Val()
	if len(h) == 0 {
		return nil, ErrJobNotFound
	}

	job := &Job{
		ID:       id,
		UserID:   h["user_id"],
		Status:   Status(h["status"]),
		PlanID:   h["plan_id"],
		Error:    h["error"],
		Progress: progress.Val(),
	}
	if job.Progress == nil {
		job.Progress = []string{}
	}
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, h["created_at"])
	job.UpdatedAt, _ = time.Parse(time.RFC3339Nano, h["updated_at"])
	return job, nil
}

// SetStatus updates the job status.
func (s *RedisStore) SetStatus(ctx context.Context, id string, status Status, planID, errMsg string, at time.Time) error {
	key := jobKey(id)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("checking job %s: %w", id, err)
	}
	if exists == 0 {
		return ErrJobNotFound
	}

	values := []any{"status", string(status), "updated_at", at.UTC().Format(time.RFC3339Nano)}
	if planID != "" {
		values = append(values, "plan_id", planID)
	}
	if errMsg != "" {
		values = append(values, "error", errMsg)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, s.ttl)
		pipe.Expire(ctx, progressKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	return nil
}

// AppendProgress adds a progress message.
func (s *RedisStore) AppendProgress(ctx context.Context, id, msg string) error {
	key := progressKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, msg)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending progress to job %s: %w", id, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
