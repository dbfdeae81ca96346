package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RedisStore charges windows against a shared Redis instance via
// ulule/limiter, so multiple gateway processes see one budget per key.
// Window boundaries are period-aligned rather than first-request-anchored;
// the budget per window is the same either way.
type RedisStore struct {
	instance *limiter.Limiter
}

// NewRedisStore creates a Redis-backed window store. Non-positive limit or
// window values fall back to fixed defaults.
func NewRedisStore(client *redis.Client, limit int, window time.Duration) (*RedisStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "aidbridge:ratelimit",
	})
	if err != nil {
		return nil, fmt.Errorf("create redis rate limit store: %w", err)
	}
	rate := limiter.Rate{Period: window, Limit: int64(limit)}
	return &RedisStore{instance: limiter.New(store, rate)}, nil
}

// Take implements Store. The underlying INCR is atomic in Redis, so
// concurrent flows for the same key cannot overshoot.
func (s *RedisStore) Take(ctx context.Context, key string) (Result, error) {
	c, err := s.instance.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	resetAfter := time.Until(time.Unix(c.Reset, 0))
	if resetAfter < 0 {
		resetAfter = 0
	}
	return Result{
		Allowed:    !c.Reached,
		Limit:      int(c.Limit),
		Remaining:  int(c.Remaining),
		ResetAfter: resetAfter,
	}, nil
}
