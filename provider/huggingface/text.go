package huggingface

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/mhpenta/genpipe"
)

// TextClient calls a text-generation model.
type TextClient struct {
	*endpoint
}

// Ensure TextClient implements genpipe.TextClient.
var _ genpipe.TextClient = (*TextClient)(nil)

// NewTextClient creates a text handle.
func NewTextClient(opts Options) (*TextClient, error) {
	e, err := newEndpoint(opts)
	if err != nil {
		return nil, err
	}
	return &TextClient{endpoint: e}, nil
}

type textParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type textRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters textParameters `json:"parameters"`
}

// GenerateText posts prompt and returns the trimmed generated text.
func (c *TextClient) GenerateText(ctx context.Context, prompt string, params genpipe.SamplingParams) (string, error) {
	resp, err := c.post(ctx, textRequest{
		Inputs: prompt,
		Parameters: textParameters{
			MaxNewTokens: params.MaxNewTokens,
			Temperature:  params.Temperature,
			TopP:         params.TopP,
			DoSample:     true,
		},
	}, "application/json")
	if err != nil {
		return "", err
	}
	return ExtractGeneratedText(resp.body)
}

// Info describes the handle.
func (c *TextClient) Info() genpipe.HandleInfo { return c.info }

// ExtractGeneratedText reads generated_text or summary_text from a response
// that is a JSON string, an object, or an array whose first element is an
// object.
func ExtractGeneratedText(body []byte) (string, error) {
	var payload any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", genpipe.ErrUnexpectedPayload, err)
	}

	switch v := payload.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any:
		if text, ok := textField(v); ok {
			return text, nil
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				if text, ok := textField(first); ok {
					return text, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: no generated_text or summary_text", genpipe.ErrUnexpectedPayload)
}

func textField(m map[string]any) (string, bool) {
	for _, key := range []string{"generated_text", "summary_text"} {
		if raw, ok := m[key]; ok && raw != nil {
			text := strings.TrimSpace(fmt.Sprint(raw))
			if text != "" {
				return text, true
			}
		}
	}
	return "", false
}
