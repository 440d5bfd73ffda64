package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "climate:"

// RedisCache stores observations as JSON strings keyed by region.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached observation, or nil when absent.
func (c *RedisCache) Get(ctx context.Context, region string) (*Observation, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+region).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var obs Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("decoding cached climate: %w", err)
	}
	return &obs, nil
}

// Set stores obs for ttl.
func (c *RedisCache) Set(ctx context.Context, region string, obs *Observation, ttl time.Duration) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKeyPrefix+region, data, ttl).Err()
}

var _ Cache = (*RedisCache)(nil)
