package genpipe

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

// UntitledPrompt replaces a blank image prompt.
const UntitledPrompt = "Untitled concept"

var (
	promptLine  = regexp.MustCompile(`(?i)PROMPT:\s*(.+)`)
	captionLine = regexp.MustCompile(`(?i)CAPTION:\s*(.+)`)
)

// ImageDirector turns a short idea into a diffusion prompt and a caption
// using the remote text tier. It has no local or heuristic fallback.
type ImageDirector struct {
	remote *RemoteTextTier
	params SamplingParams
	logger *slog.Logger
}

// NewImageDirector creates a director over remote. remote may be nil, in
// which case the raw prompt is always returned.
func NewImageDirector(remote *RemoteTextTier, logger *slog.Logger) *ImageDirector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageDirector{
		remote: remote,
		params: DirectorSampling(),
		logger: logger,
	}
}

// EnhancePrompt returns the director prompt and caption for raw. Either
// output falls back to the trimmed raw prompt when the remote answer does
// not contain the matching line.
func (d *ImageDirector) EnhancePrompt(ctx context.Context, raw string) (directorPrompt, caption string) {
	trimmed := NormalizePrompt(raw)

	completion, err := d.remote.Complete(ctx, directorInstructions(trimmed), d.params)
	if err != nil {
		if !errors.Is(err, errTierSkipped) {
			d.logger.Warn("prompt enhancement failed, using raw prompt",
				"error", err.Error(),
			)
		}
		return trimmed, trimmed
	}

	return matchLine(promptLine, completion, trimmed), matchLine(captionLine, completion, trimmed)
}

func directorInstructions(idea string) string {
	return "You are an art director. Given the idea below, " +
		"write a single vivid diffusion prompt and a short caption. Respond " +
		"with exactly two lines:\n" +
		"PROMPT: <the expanded diffusion prompt>\n" +
		"CAPTION: <a friendly caption for the gallery card>.\n" +
		"Idea: " + idea
}

func matchLine(re *regexp.Regexp, text, fallback string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

// NormalizePrompt trims prompt and substitutes UntitledPrompt when blank.
func NormalizePrompt(prompt string) string {
	if ValidatePrompt(prompt) != nil {
		return UntitledPrompt
	}
	return strings.TrimSpace(prompt)
}
