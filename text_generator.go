package genpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier names a strategy in the reply fallback chain.
type Tier string

const (
	TierRemoteText    Tier = "remote_text"
	TierLocalPipeline Tier = "local_pipeline"
	TierHeuristic     Tier = "heuristic"
)

// errTierSkipped marks a tier that is not configured.
var errTierSkipped = errors.New("tier not configured")

// errTierPanic wraps a recovered panic.
var errTierPanic = errors.New("tier panicked")

// TextTier is one strategy in the reply fallback chain. A tier either
// returns a non-empty reply or an error that moves generation to the
// next tier.
type TextTier interface {
	Name() Tier
	Reply(ctx context.Context, turns []ConversationTurn, prompt string) (string, error)
}

// RemoteTextTier submits the prompt to the remote text handle.
type RemoteTextTier struct {
	clients ClientSource
	params  SamplingParams
}

// NewRemoteTextTier creates the remote tier. clients may be nil.
func NewRemoteTextTier(clients ClientSource, params SamplingParams) *RemoteTextTier {
	return &RemoteTextTier{
		clients: clients,
		params:  params.Normalize(DefaultSampling()),
	}
}

func (t *RemoteTextTier) Name() Tier { return TierRemoteText }

func (t *RemoteTextTier) Reply(ctx context.Context, _ []ConversationTurn, prompt string) (string, error) {
	return t.Complete(ctx, prompt, t.params)
}

// Complete runs a single remote generation with explicit sampling and
// returns the trimmed output. Empty output is an error.
func (t *RemoteTextTier) Complete(ctx context.Context, prompt string, params SamplingParams) (string, error) {
	if t == nil || t.clients == nil {
		return "", errTierSkipped
	}
	client := t.clients.TextClient(ctx)
	if client == nil {
		return "", errTierSkipped
	}

	out, err := client.GenerateText(ctx, prompt, params)
	if err != nil {
		return "", fmt.Errorf("remote text via %s: %w", client.Info().Target(), err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("remote text via %s: %w: empty output", client.Info().Target(), ErrUnexpectedPayload)
	}
	return out, nil
}

// LocalPipelineTier runs the in-process model.
type LocalPipelineTier struct {
	pipeline *LocalPipeline
	params   SamplingParams
}

// NewLocalPipelineTier creates the local tier. pipeline may be nil.
func NewLocalPipelineTier(pipeline *LocalPipeline, params SamplingParams) *LocalPipelineTier {
	return &LocalPipelineTier{
		pipeline: pipeline,
		params:   params.Normalize(DefaultSampling()),
	}
}

func (t *LocalPipelineTier) Name() Tier { return TierLocalPipeline }

func (t *LocalPipelineTier) Reply(ctx context.Context, _ []ConversationTurn, prompt string) (string, error) {
	if t.pipeline == nil {
		return "", ErrLocalUnavailable
	}
	out, err := t.pipeline.Execute(ctx, prompt, t.params)
	if err != nil {
		return "", err
	}
	if out = strings.TrimSpace(out); out == "" {
		return EmptyLocalResponse, nil
	}
	return out, nil
}

// HeuristicTier always produces a reply.
type HeuristicTier struct{}

func (HeuristicTier) Name() Tier { return TierHeuristic }

func (HeuristicTier) Reply(_ context.Context, turns []ConversationTurn, _ string) (string, error) {
	return HeuristicReply(turns), nil
}

// DefaultTextTiers returns remote, local and heuristic tiers in that order.
func DefaultTextTiers(clients ClientSource, local *LocalPipeline, params SamplingParams) []TextTier {
	return []TextTier{
		NewRemoteTextTier(clients, params),
		NewLocalPipelineTier(local, params),
		HeuristicTier{},
	}
}

// TextGenerator produces conversation replies by walking its tiers in
// order until one succeeds.
type TextGenerator struct {
	tiers  []TextTier
	logger *slog.Logger
}

// NewTextGenerator creates a generator over tiers. A nil logger uses slog.Default().
func NewTextGenerator(logger *slog.Logger, tiers ...TextTier) *TextGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextGenerator{
		tiers:  tiers,
		logger: logger,
	}
}

// Tiers returns the tier order.
func (g *TextGenerator) Tiers() []Tier {
	names := make([]Tier, len(g.tiers))
	for i, t := range g.tiers {
		names[i] = t.Name()
	}
	return names
}

// GenerateResponse returns a non-empty reply for turns. It never fails;
// when every tier errors the heuristic reply is returned.
func (g *TextGenerator) GenerateResponse(ctx context.Context, turns []ConversationTurn) string {
	reply, _ := g.generate(ctx, turns)
	return reply
}

func (g *TextGenerator) generate(ctx context.Context, turns []ConversationTurn) (string, Tier) {
	logger := g.logger.With("request_id", uuid.NewString())
	prompt := BuildPrompt(turns)

	logger.Debug("starting reply generation",
		"turns", len(turns),
		"prompt_length", len(prompt),
	)

	for _, tier := range g.tiers {
		start := time.Now()
		reply, err := runTier(ctx, tier, turns, prompt)
		duration := time.Since(start)

		if err == nil && reply != "" {
			logger.Info("reply generated",
				"tier", string(tier.Name()),
				"duration_ms", duration.Milliseconds(),
				"reply_length", len(reply),
			)
			return reply, tier.Name()
		}

		attrs := []any{
			"tier", string(tier.Name()),
			"duration_ms", duration.Milliseconds(),
		}
		switch {
		case err == nil:
			logger.Warn("tier returned empty reply", attrs...)
		case errors.Is(err, errTierSkipped):
			logger.Debug("tier not configured", attrs...)
		case errors.Is(err, errTierPanic):
			logger.Error("tier failed unexpectedly", append(attrs, "error", err.Error())...)
		case tier.Name() == TierLocalPipeline && !errors.Is(err, ErrLocalUnavailable):
			logger.Error("local generation failed", append(attrs, "error", err.Error())...)
		default:
			logger.Warn("tier failed, falling through", append(attrs, "error", err.Error())...)
		}
	}

	logger.Info("reply generated", "tier", string(TierHeuristic))
	return HeuristicReply(turns), TierHeuristic
}

func runTier(ctx context.Context, tier TextTier, turns []ConversationTurn, prompt string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = "", fmt.Errorf("%w: %v", errTierPanic, r)
		}
	}()
	return tier.Reply(ctx, turns, prompt)
}
