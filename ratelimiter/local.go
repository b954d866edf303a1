package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is an in-process limiter with one bucket for tokens and one
// for requests. Both refill once per minute.
type RateLimiter struct {
	mu             sync.Mutex
	TokensBucket   *TokenBucket
	RequestsBucket *TokenBucket
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing tokensPerMinute tokens and
// requestsPerMinute requests.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	return NewLimiter(Config{
		TokensPerMinute:   tokensPerMinute,
		RequestsPerMinute: requestsPerMinute,
	})
}

// NewLimiter creates a limiter from cfg.
func NewLimiter(cfg Config) *RateLimiter {
	return &RateLimiter{
		TokensBucket:   NewTokenBucket(cfg.TokensPerMinute, cfg.TokensPerMinute, time.Minute),
		RequestsBucket: NewTokenBucket(cfg.RequestsPerMinute, cfg.RequestsPerMinute, time.Minute),
	}
}

// TryConsume takes numTokens tokens and one request, or nothing.
func (rl *RateLimiter) TryConsume(_ context.Context, numTokens int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.TokensBucket.HasCapacity(numTokens) || !rl.RequestsBucket.HasCapacity(1) {
		return false
	}
	return rl.TokensBucket.TryConsume(numTokens) && rl.RequestsBucket.TryConsume(1)
}

// TimeUntilAvailable returns the longer of the token and request waits.
func (rl *RateLimiter) TimeUntilAvailable(_ context.Context, tokens int) time.Duration {
	return max(rl.TokensBucket.TimeUntilAvailable(tokens), rl.RequestsBucket.TimeUntilAvailable(1))
}

// WaitAndConsume waits until tokens are available (up to maxWait), then consumes them.
// If maxWait is 0, there is no limit on how long to wait.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	return waitAndConsume(ctx, rl, tokens, maxWait)
}

// waitAndConsume is shared by every Limiter implementation.
func waitAndConsume(ctx context.Context, l Limiter, tokens int, maxWait time.Duration) error {
	waitDuration := l.TimeUntilAvailable(ctx, tokens)

	if waitDuration > 0 {
		if maxWait > 0 && waitDuration > maxWait {
			return fmt.Errorf("rate limit wait time %v exceeds max wait %v", waitDuration, maxWait)
		}

		timer := time.NewTimer(waitDuration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if !l.TryConsume(ctx, tokens) {
		return fmt.Errorf("failed to acquire %d tokens after waiting %v", tokens, waitDuration)
	}
	return nil
}

// TokenBucket implements a token bucket that refills to capacity once per
// refillInterval.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      int
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(capacity int, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      initialTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

// refill must be called with mu held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	if now.Sub(tb.lastRefill) >= tb.refillInterval {
		tb.remaining = tb.capacity
		tb.lastRefill = now
	}
}

// HasCapacity checks if tokens are available without consuming them.
func (tb *TokenBucket) HasCapacity(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tokens <= tb.remaining
}

// TryConsume takes tokens from the bucket if enough remain.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	if tokens <= tb.remaining {
		tb.remaining -= tokens
		return true
	}
	return false
}

// TimeUntilAvailable returns how long until tokens would be available (read-only).
// Requests larger than the capacity are never satisfiable and report one
// full interval.
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := tb.now().Sub(tb.lastRefill)
	if elapsed >= tb.refillInterval {
		if tokens <= tb.capacity {
			return 0
		}
		return tb.refillInterval
	}
	if tokens <= tb.remaining {
		return 0
	}
	return tb.refillInterval - elapsed
}
