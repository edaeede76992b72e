package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "user:a")
		require.NoError(t, err)
		assert.True(t, allowed, "submission %d should be allowed", i+1)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "session:b")
	require.NoError(t, err)
	assert.True(t, allowed, "a different submitter has its own window")
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	limiter := NewMemoryLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(80 * time.Millisecond)

	allowed, _, err = limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	assert.True(t, allowed, "a new window starts after expiry")
}
