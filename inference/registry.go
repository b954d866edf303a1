// Package inference resolves the remote text and image handles once per
// process and hands them to the generators.
package inference

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mhpenta/genpipe"
	"github.com/mhpenta/genpipe/provider/gemini"
	"github.com/mhpenta/genpipe/provider/huggingface"
	"github.com/mhpenta/genpipe/ratelimiter"
)

// TextFactory builds the text handle from configuration.
type TextFactory func(ctx context.Context, cfg genpipe.Config) (genpipe.TextClient, error)

// ImageFactory builds the image handle from configuration.
type ImageFactory func(ctx context.Context, cfg genpipe.Config) (genpipe.ImageClient, error)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for resolution messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithTextFactory replaces the backend text constructor.
func WithTextFactory(f TextFactory) Option {
	return func(r *Registry) {
		r.textFactory = f
	}
}

// WithImageFactory replaces the backend image constructor.
func WithImageFactory(f ImageFactory) Option {
	return func(r *Registry) {
		r.imageFactory = f
	}
}

// WithTokenEstimator sets how request cost is estimated for rate limiting.
func WithTokenEstimator(est genpipe.TokenEstimator) Option {
	return func(r *Registry) {
		r.estimator = est
	}
}

// WithRedisClient shares rate limits through client instead of
// connecting to RateLimitConfig.RedisAddr.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(r *Registry) {
		r.redis = client
	}
}

// Registry resolves each purpose at most once. Configuration is captured
// at construction; later changes are not observed.
type Registry struct {
	cfg          genpipe.Config
	logger       *slog.Logger
	textFactory  TextFactory
	imageFactory ImageFactory
	estimator    genpipe.TokenEstimator
	limiters     ratelimiter.Registry

	redis     redis.UniversalClient
	ownsRedis bool

	textOnce  sync.Once
	text      genpipe.TextClient
	imageOnce sync.Once
	image     genpipe.ImageClient
}

// Ensure Registry implements genpipe.ClientSource.
var _ genpipe.ClientSource = (*Registry)(nil)

// NewRegistry creates a registry for cfg.
func NewRegistry(cfg genpipe.Config, opts ...Option) *Registry {
	r := &Registry{
		cfg:       cfg.Normalize(),
		logger:    slog.Default(),
		estimator: genpipe.NewSimpleTokenEstimator(),
		limiters:  ratelimiter.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.textFactory == nil {
		r.textFactory = defaultTextFactory
	}
	if r.imageFactory == nil {
		r.imageFactory = defaultImageFactory
	}
	if r.redis == nil && r.cfg.RateLimit.Enabled() && r.cfg.RateLimit.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RateLimit.RedisAddr})
		r.ownsRedis = true
	}
	return r
}

// TextClient returns the text handle, or nil when text generation is not
// configured or the handle could not be built. The handle outlives ctx, so
// its cancellation does not reach the factory.
func (r *Registry) TextClient(ctx context.Context) genpipe.TextClient {
	r.textOnce.Do(func() {
		if !r.cfg.Text.Configured() {
			r.logger.Debug("remote text not configured")
			return
		}
		c, err := r.textFactory(context.WithoutCancel(ctx), r.cfg)
		if err != nil || c == nil {
			r.logConstructionFailure("text", err)
			return
		}
		r.logger.Info("remote text handle ready",
			"provider", string(c.Info().Provider),
			"target", c.Info().Target(),
		)
		r.text = genpipe.LimitTextClient(c, r.limiter("text", c.Info()), r.estimator)
	})
	return r.text
}

// ImageClient returns the image handle, or nil when image generation is
// not configured or the handle could not be built.
func (r *Registry) ImageClient(ctx context.Context) genpipe.ImageClient {
	r.imageOnce.Do(func() {
		if !r.cfg.Image.Configured() {
			r.logger.Debug("remote image not configured")
			return
		}
		c, err := r.imageFactory(context.WithoutCancel(ctx), r.cfg)
		if err != nil || c == nil {
			r.logConstructionFailure("image", err)
			return
		}
		r.logger.Info("remote image handle ready",
			"provider", string(c.Info().Provider),
			"target", c.Info().Target(),
		)
		r.image = genpipe.LimitImageClient(c, r.limiter("image", c.Info()), r.estimator)
	})
	return r.image
}

// Close releases the Redis connection if the registry opened it.
func (r *Registry) Close() error {
	if r.ownsRedis && r.redis != nil {
		return r.redis.Close()
	}
	return nil
}

func (r *Registry) logConstructionFailure(purpose string, err error) {
	if err == nil {
		err = errors.New("factory returned no handle")
	}
	r.logger.Warn("failed to create remote handle",
		"purpose", purpose,
		"backend", r.cfg.Backend,
		"error", err.Error(),
	)
}

func (r *Registry) limiter(purpose string, info genpipe.HandleInfo) ratelimiter.Limiter {
	rl := r.cfg.RateLimit
	if !rl.Enabled() {
		return nil
	}
	name := purpose + ":" + info.Target()
	return r.limiters.GetOrCreate(name, func() ratelimiter.Limiter {
		limits := ratelimiter.Config{
			TokensPerMinute:   rl.TokensPerMinute,
			RequestsPerMinute: rl.RequestsPerMinute,
		}
		if r.redis != nil {
			return ratelimiter.NewRedisLimiter(r.redis, rl.KeyPrefix, name, limits, r.logger)
		}
		return ratelimiter.NewLimiter(limits)
	})
}

func defaultTextFactory(ctx context.Context, cfg genpipe.Config) (genpipe.TextClient, error) {
	if cfg.Backend == genpipe.BackendGemini {
		c, err := gemini.NewTextClient(ctx, gemini.Options{
			Model:    overrideModel(cfg.Text),
			APIKey:   cfg.Token,
			Endpoint: cfg.Text.Endpoint,
			Timeout:  cfg.Text.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	c, err := huggingface.NewTextClient(huggingface.Options{
		Model:    cfg.Text.ResolveModel(),
		Endpoint: cfg.Text.Endpoint,
		Token:    cfg.Token,
		Timeout:  cfg.Text.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func defaultImageFactory(ctx context.Context, cfg genpipe.Config) (genpipe.ImageClient, error) {
	if cfg.Backend == genpipe.BackendGemini {
		c, err := gemini.NewImageClient(ctx, gemini.Options{
			Model:    overrideModel(cfg.Image),
			APIKey:   cfg.Token,
			Endpoint: cfg.Image.Endpoint,
			Timeout:  cfg.Image.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	c, err := huggingface.NewImageClient(huggingface.Options{
		Model:    cfg.Image.ResolveModel(),
		Endpoint: cfg.Image.Endpoint,
		Token:    cfg.Token,
		Timeout:  cfg.Image.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// overrideModel skips the built-in default, which names a Hugging Face
// model, so the Gemini handle falls back to its own default.
func overrideModel(rc genpipe.RemoteConfig) string {
	for _, m := range []string{rc.Model, rc.FallbackModel} {
		if m = strings.TrimSpace(m); m != "" {
			return m
		}
	}
	return ""
}
