// Package ratelimit throttles chat turns per client so a single caller
// cannot exhaust the remote model quota.
//
// MemoryLimiter is an in-process token bucket; the Limiter interface lets a
// shared store replace it when several instances sit behind one quota.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a request identified by key should be allowed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow returns true if the request should proceed.
	// Returning an error signals a limiter malfunction; callers
	// treat errors as fail-open.
	Allow(ctx context.Context, key string) (bool, error)

	// Close releases resources (cleanup goroutines, connections).
	Close() error
}

// RetryAfterer is implemented by limiters that can tell a rejected caller
// how long to wait.
type RetryAfterer interface {
	RetryAfter(key string) time.Duration
}

// NoopLimiter permits every request. Used when rate limiting is disabled.
type NoopLimiter struct{}

// Allow always returns true.
func (NoopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

// Close is a no-op.
func (NoopLimiter) Close() error { return nil }
