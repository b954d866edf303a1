package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/mhpenta/genpipe"
)

type fakeModels struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f.GenerateContentFunc(ctx, model, contents, config)
}

func testHandle(model string, f *fakeModels) *handle {
	return &handle{
		models: f,
		model:  model,
		info:   genpipe.HandleInfo{Provider: genpipe.ProviderGemini, Model: model},
	}
}

func response(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestTextClient_GenerateText(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	var gotModel string
	f := &fakeModels{
		GenerateContentFunc: func(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			gotConfig = config
			require.Len(t, contents, 1)
			assert.Equal(t, "User: hi\nAssistant:", contents[0].Parts[0].Text)
			return response(
				&genai.Part{Text: "thinking...", Thought: true},
				&genai.Part{Text: " Hello "},
				&genai.Part{Text: "there."},
			), nil
		},
	}
	c := &TextClient{handle: testHandle(DefaultTextModel, f)}

	out, err := c.GenerateText(context.Background(), "User: hi\nAssistant:", genpipe.DirectorSampling())
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", out)
	assert.Equal(t, DefaultTextModel, gotModel)
	assert.InDelta(t, 0.65, *gotConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.92, *gotConfig.TopP, 1e-6)
	assert.EqualValues(t, 220, gotConfig.MaxOutputTokens)
}

func TestTextClient_EmptyResponse(t *testing.T) {
	f := &fakeModels{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}
	c := &TextClient{handle: testHandle(DefaultTextModel, f)}

	_, err := c.GenerateText(context.Background(), "p", genpipe.DefaultSampling())
	assert.ErrorIs(t, err, genpipe.ErrUnexpectedPayload)
}

func TestTextClient_RateLimit(t *testing.T) {
	f := &fakeModels{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}
		},
	}
	c := &TextClient{handle: testHandle(DefaultTextModel, f)}

	_, err := c.GenerateText(context.Background(), "p", genpipe.DefaultSampling())
	require.Error(t, err)
	assert.True(t, genpipe.IsRateLimitError(err))
}

func TestImageClient_GenerateImage(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	f := &fakeModels{
		GenerateContentFunc: func(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotConfig = config
			return response(
				&genai.Part{Text: "here you go"},
				&genai.Part{InlineData: &genai.Blob{Data: []byte("png-bytes"), MIMEType: "image/png"}},
			), nil
		},
	}
	c := &ImageClient{handle: testHandle(DefaultImageModel, f)}

	out, err := c.GenerateImage(context.Background(), "fox", genpipe.ImageParams{Width: 1920, Height: 1080})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), out.Data)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, gotConfig.ResponseModalities)
	assert.Equal(t, "16:9", gotConfig.ImageConfig.AspectRatio)
}

func TestImageClient_NoImage(t *testing.T) {
	f := &fakeModels{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return response(&genai.Part{Text: "I cannot draw that"}), nil
		},
	}
	c := &ImageClient{handle: testHandle(DefaultImageModel, f)}

	_, err := c.GenerateImage(context.Background(), "fox", genpipe.DefaultImageParams())
	assert.ErrorIs(t, err, genpipe.ErrUnexpectedPayload)
}

func TestCheckRateLimitError(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, checkRateLimitError(plain, "m"))

	other := genai.APIError{Code: 500, Status: "INTERNAL"}
	assert.False(t, genpipe.IsRateLimitError(checkRateLimitError(other, "m")))

	limited := checkRateLimitError(genai.APIError{Code: 429}, "m")
	var rlErr *genpipe.RateLimitError
	require.ErrorAs(t, limited, &rlErr)
	assert.Equal(t, "m", rlErr.Model)
}
