package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/mhpenta/genpipe"
)

// ImageClient generates single images through Gemini's image output.
type ImageClient struct {
	*handle
}

// Ensure ImageClient implements genpipe.ImageClient.
var _ genpipe.ImageClient = (*ImageClient)(nil)

// NewImageClient creates an image handle. A blank model uses DefaultImageModel.
func NewImageClient(ctx context.Context, opts Options) (*ImageClient, error) {
	h, err := newHandle(ctx, opts, DefaultImageModel)
	if err != nil {
		return nil, err
	}
	return &ImageClient{handle: h}, nil
}

// GenerateImage returns the first inline image of the response. Width and
// height map to the closest supported aspect ratio.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string, params genpipe.ImageParams) (*genpipe.RemoteImage, error) {
	result, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: params.AspectRatio().String(),
		},
	})
	if err != nil {
		return nil, err
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &genpipe.RemoteImage{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: response has no image parts", genpipe.ErrUnexpectedPayload)
}

// Info describes the handle.
func (c *ImageClient) Info() genpipe.HandleInfo { return c.info }
