package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mhpenta/genpipe"
)

// TextClient generates conversation replies and director prompts.
type TextClient struct {
	*handle
}

// Ensure TextClient implements genpipe.TextClient.
var _ genpipe.TextClient = (*TextClient)(nil)

// NewTextClient creates a text handle. A blank model uses DefaultTextModel.
func NewTextClient(ctx context.Context, opts Options) (*TextClient, error) {
	h, err := newHandle(ctx, opts, DefaultTextModel)
	if err != nil {
		return nil, err
	}
	return &TextClient{handle: h}, nil
}

// GenerateText returns the concatenated non-thought text parts.
func (c *TextClient) GenerateText(ctx context.Context, prompt string, params genpipe.SamplingParams) (string, error) {
	result, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(params.Temperature)),
		TopP:            genai.Ptr(float32(params.TopP)),
		MaxOutputTokens: int32(params.MaxNewTokens),
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(collectText(result))
	if text == "" {
		return "", fmt.Errorf("%w: no text parts", genpipe.ErrUnexpectedPayload)
	}
	return text, nil
}

// Info describes the handle.
func (c *TextClient) Info() genpipe.HandleInfo { return c.info }

func collectText(result *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
