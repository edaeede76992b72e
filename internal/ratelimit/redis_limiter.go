package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is the shared fixed-window counter for multi-instance
// deployments. INCR + first-writer EXPIRE keeps the window atomic enough
// for a submission limiter.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		max:    max,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("ratelimit:submit:%s", key)

	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if int(count) > l.max {
		ttl, err := l.rdb.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
