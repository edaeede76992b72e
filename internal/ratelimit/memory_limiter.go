package ratelimit

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter is a fixed-window counter backed by go-cache. Suitable
// for single-instance deployments and tests; multi-instance setups use
// the redis limiter so windows are shared.
type MemoryLimiter struct {
	cache  *cache.Cache
	max    int
	window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  cache.New(window, 2*window),
		max:    max,
		window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	_, expiration, found := l.cache.GetWithExpiration(key)
	if !found {
		l.cache.Set(key, 1, l.window)
		return true, 0, nil
	}

	count, err := l.cache.IncrementInt(key, 1)
	if err != nil {
		// expired between Get and Increment; start a fresh window
		l.cache.Set(key, 1, l.window)
		return true, 0, nil
	}

	if count > l.max {
		retryAfter := time.Until(expiration)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}
