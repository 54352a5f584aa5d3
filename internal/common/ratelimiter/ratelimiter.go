package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RedisRateLimiter counts requests per key in fixed windows shared by every process
// using the same Redis.
type RedisRateLimiter struct {
	redis       *redis.Client
	window      time.Duration
	maxRequests int
	now         func() time.Time
}

func NewRedisRateLimiter(redisClient *redis.Client, window time.Duration, maxRequests int) *RedisRateLimiter {
	return &RedisRateLimiter{
		redis:       redisClient,
		window:      window,
		maxRequests: maxRequests,
		now:         time.Now,
	}
}

// Allow records one request for key and fails with ErrRateLimited once the window's
// budget is spent.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) error {
	windowSeconds := int64(r.window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	redisKey := fmt.Sprintf("railseat:rate_limit:%s:%d", key, r.now().Unix()/windowSeconds)

	pipe := r.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("counting requests: %w", err)
	}

	if count := incr.Val(); count > int64(r.maxRequests) {
		return fmt.Errorf("%w: %d requests in %v", ErrRateLimited, count, r.window)
	}
	return nil
}
