package genpipe

import (
	"context"

	"github.com/mhpenta/genpipe/ratelimiter"
)

// LimitTextClient wraps c so each call first consumes its estimated cost
// from limiter. A refused call returns *RateLimitError without reaching c.
func LimitTextClient(c TextClient, limiter ratelimiter.Limiter, est TokenEstimator) TextClient {
	if c == nil || limiter == nil {
		return c
	}
	return &limitedTextClient{next: c, limiter: limiter, est: est}
}

// LimitImageClient is LimitTextClient for image handles.
func LimitImageClient(c ImageClient, limiter ratelimiter.Limiter, est TokenEstimator) ImageClient {
	if c == nil || limiter == nil {
		return c
	}
	return &limitedImageClient{next: c, limiter: limiter, est: est}
}

type limitedTextClient struct {
	next    TextClient
	limiter ratelimiter.Limiter
	est     TokenEstimator
}

func (c *limitedTextClient) GenerateText(ctx context.Context, prompt string, params SamplingParams) (string, error) {
	if err := consume(ctx, c.limiter, c.next.Info(), requestCost(c.est, prompt, params.MaxNewTokens)); err != nil {
		return "", err
	}
	return c.next.GenerateText(ctx, prompt, params)
}

func (c *limitedTextClient) Info() HandleInfo { return c.next.Info() }

type limitedImageClient struct {
	next    ImageClient
	limiter ratelimiter.Limiter
	est     TokenEstimator
}

func (c *limitedImageClient) GenerateImage(ctx context.Context, prompt string, params ImageParams) (*RemoteImage, error) {
	if err := consume(ctx, c.limiter, c.next.Info(), requestCost(c.est, prompt, imageRequestTokens)); err != nil {
		return nil, err
	}
	return c.next.GenerateImage(ctx, prompt, params)
}

func (c *limitedImageClient) Info() HandleInfo { return c.next.Info() }

func consume(ctx context.Context, limiter ratelimiter.Limiter, info HandleInfo, tokens int) error {
	if limiter.TryConsume(ctx, tokens) {
		return nil
	}
	return &RateLimitError{
		RetryAfter: limiter.TimeUntilAvailable(ctx, tokens),
		LimitType:  LimitBudget,
		Model:      info.Target(),
	}
}
