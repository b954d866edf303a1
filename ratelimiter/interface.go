// Package ratelimiter limits remote model usage by tokens and requests per
// minute. Limiters are either in-process token buckets or a Redis fixed
// window shared between processes.
package ratelimiter

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiters.
type Limiter interface {
	// TryConsume atomically checks capacity and consumes one request and
	// numTokens tokens if both are available.
	TryConsume(ctx context.Context, numTokens int) bool

	// TimeUntilAvailable returns how long until tokens would be available (read-only).
	TimeUntilAvailable(ctx context.Context, tokens int) time.Duration

	// WaitAndConsume waits until tokens are available, then consumes them.
	// Returns error if context is cancelled or maxWait is exceeded.
	WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error
}

// Config holds per-minute limits.
type Config struct {
	TokensPerMinute   int
	RequestsPerMinute int
}
