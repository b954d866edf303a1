// Package gemini provides text and image handles using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mhpenta/genpipe"
)

// Options configures a Gemini handle.
type Options struct {
	// Model is the API model name.
	Model string

	// APIKey authenticates the client. If empty, the SDK reads
	// GOOGLE_API_KEY or GEMINI_API_KEY.
	APIKey string

	// Endpoint overrides the API base URL.
	Endpoint string

	Timeout time.Duration
}

// generator is the part of the SDK the handles use.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type handle struct {
	models  generator
	model   string
	timeout time.Duration
	info    genpipe.HandleInfo
}

func newHandle(ctx context.Context, opts Options, defaultModel string) (*handle, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}
	if opts.APIKey != "" {
		clientCfg.APIKey = opts.APIKey
	}
	if opts.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	return &handle{
		models:  client.Models,
		model:   model,
		timeout: opts.Timeout,
		info: genpipe.HandleInfo{
			Provider: genpipe.ProviderGemini,
			Model:    model,
			Endpoint: opts.Endpoint,
		},
	}, nil
}

func (h *handle) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	result, err := h.models.GenerateContent(ctx, h.model, contents, cfg)
	if err != nil {
		return nil, checkRateLimitError(fmt.Errorf("gemini %s: %w", h.model, err), h.model)
	}
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: empty response from model", genpipe.ErrUnexpectedPayload)
	}
	return result, nil
}

// checkRateLimitError wraps quota errors in a RateLimitError; other errors
// are returned unchanged.
func checkRateLimitError(err error, model string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return err
	}

	return &genpipe.RateLimitError{
		RetryAfter: 60 * time.Second, // API doesn't reliably provide Retry-After
		LimitType:  genpipe.LimitProvider,
		Model:      model,
		Err:        err,
	}
}
