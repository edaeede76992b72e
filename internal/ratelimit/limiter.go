// Package ratelimit enforces the per-submitter submission window for the
// ingestion API. Verified users and anonymous sessions are both keyed by
// their uuid.
package ratelimit

import (
	"context"
	"time"
)

type Limiter interface {
	// Allow records one submission attempt for the key. When the window
	// is exhausted it returns false together with the time until the
	// window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
