package huggingface

import (
	"context"
	"fmt"
	"strings"

	"github.com/mhpenta/genpipe"
)

// ImageClient calls a text-to-image model.
type ImageClient struct {
	*endpoint
}

// Ensure ImageClient implements genpipe.ImageClient.
var _ genpipe.ImageClient = (*ImageClient)(nil)

// NewImageClient creates an image handle.
func NewImageClient(opts Options) (*ImageClient, error) {
	e, err := newEndpoint(opts)
	if err != nil {
		return nil, err
	}
	return &ImageClient{endpoint: e}, nil
}

type imageParameters struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

type imageRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

// GenerateImage posts prompt and returns the encoded image. Responses that
// are not images yield genpipe.ErrUnexpectedPayload.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string, params genpipe.ImageParams) (*genpipe.RemoteImage, error) {
	resp, err := c.post(ctx, imageRequest{
		Inputs: prompt,
		Parameters: imageParameters{
			Width:             params.Width,
			Height:            params.Height,
			GuidanceScale:     params.GuidanceScale,
			NumInferenceSteps: params.InferenceSteps,
		},
	}, "image/png")
	if err != nil {
		return nil, err
	}

	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(resp.contentType, ";", 2)[0]))
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: content type %q", genpipe.ErrUnexpectedPayload, resp.contentType)
	}
	if len(resp.body) == 0 {
		return nil, fmt.Errorf("%w: empty image body", genpipe.ErrUnexpectedPayload)
	}

	return &genpipe.RemoteImage{
		Data:     resp.body,
		MIMEType: mime,
	}, nil
}

// Info describes the handle.
func (c *ImageClient) Info() genpipe.HandleInfo { return c.info }
