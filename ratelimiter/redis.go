package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript charges one request and ARGV[1] tokens against the current
// window, rolling back when either limit would be exceeded.
var consumeScript = redis.NewScript(`
local tok = redis.call('INCRBY', KEYS[1], ARGV[1])
local req = redis.call('INCR', KEYS[2])
if redis.call('PTTL', KEYS[1]) < 0 then redis.call('PEXPIRE', KEYS[1], ARGV[4]) end
if redis.call('PTTL', KEYS[2]) < 0 then redis.call('PEXPIRE', KEYS[2], ARGV[4]) end
if tok > tonumber(ARGV[2]) or req > tonumber(ARGV[3]) then
  redis.call('DECRBY', KEYS[1], ARGV[1])
  redis.call('DECR', KEYS[2])
  return 0
end
return 1
`)

// RedisLimiter enforces per-minute limits in fixed windows stored in Redis,
// so every process sharing the keys shares the budget. Redis errors do not
// block callers; they are logged and the request is allowed.
type RedisLimiter struct {
	client    redis.UniversalClient
	tokensKey string
	reqKey    string
	cfg       Config
	window    time.Duration
	logger    *slog.Logger
}

// Ensure RedisLimiter implements Limiter.
var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter whose keys start with prefix:name.
func NewRedisLimiter(client redis.UniversalClient, prefix, name string, cfg Config, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	base := prefix + ":" + name
	return &RedisLimiter{
		client:    client,
		tokensKey: base + ":tokens",
		reqKey:    base + ":requests",
		cfg:       cfg,
		window:    time.Minute,
		logger:    logger,
	}
}

// TryConsume charges the current window if both limits allow it.
func (l *RedisLimiter) TryConsume(ctx context.Context, numTokens int) bool {
	res, err := consumeScript.Run(ctx, l.client,
		[]string{l.tokensKey, l.reqKey},
		numTokens, l.cfg.TokensPerMinute, l.cfg.RequestsPerMinute, l.window.Milliseconds(),
	).Int()
	if err != nil {
		l.logger.Warn("redis rate limiter unavailable, allowing request",
			"key", l.tokensKey,
			"error", err.Error(),
		)
		return true
	}
	return res == 1
}

// TimeUntilAvailable returns zero when the request fits in the current
// window, otherwise the time until the window resets.
func (l *RedisLimiter) TimeUntilAvailable(ctx context.Context, tokens int) time.Duration {
	if tokens > l.cfg.TokensPerMinute {
		return l.window
	}

	pipe := l.client.Pipeline()
	tokGet := pipe.Get(ctx, l.tokensKey)
	reqGet := pipe.Get(ctx, l.reqKey)
	tokTTL := pipe.PTTL(ctx, l.tokensKey)
	reqTTL := pipe.PTTL(ctx, l.reqKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0
	}

	used := counter(tokGet)
	requests := counter(reqGet)
	if used+tokens <= l.cfg.TokensPerMinute && requests+1 <= l.cfg.RequestsPerMinute {
		return 0
	}
	return max(tokTTL.Val(), reqTTL.Val(), 0)
}

// WaitAndConsume waits for the window to reset (up to maxWait), then consumes.
func (l *RedisLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	return waitAndConsume(ctx, l, tokens, maxWait)
}

func counter(cmd *redis.StringCmd) int {
	v, err := cmd.Result()
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
