package genpipe

import (
	"context"
)

// HandleInfo describes a resolved remote handle.
type HandleInfo struct {
	Provider Provider
	Model    string
	Endpoint string
}

// Target returns the endpoint if set, otherwise the model id.
func (h HandleInfo) Target() string {
	if h.Endpoint != "" {
		return h.Endpoint
	}
	return h.Model
}

// TextClient submits prompts to a remote text generation service.
type TextClient interface {
	// GenerateText returns the raw text produced for prompt. Implementations
	// return ErrUnexpectedPayload when the response carries no usable text.
	GenerateText(ctx context.Context, prompt string, params SamplingParams) (string, error)

	// Info describes the model or endpoint behind the handle.
	Info() HandleInfo
}

// ImageClient submits prompts to a remote image generation service.
type ImageClient interface {
	// GenerateImage returns the encoded image produced for prompt.
	GenerateImage(ctx context.Context, prompt string, params ImageParams) (*RemoteImage, error)

	// Info describes the model or endpoint behind the handle.
	Info() HandleInfo
}

// ClientSource hands out remote handles. A nil return means the purpose is
// not configured and the remote tier is skipped.
type ClientSource interface {
	TextClient(ctx context.Context) TextClient
	ImageClient(ctx context.Context) ImageClient
}

// LocalModel is an in-process text model.
type LocalModel interface {
	Generate(ctx context.Context, prompt string, params SamplingParams) (string, error)
	Close() error
}

// LocalLoader constructs the local model. It returns ErrLocalUnavailable
// when the runtime or the model files are missing.
type LocalLoader func(ctx context.Context) (LocalModel, error)

// Storage persists generated files.
//
// Implementations can wrap existing storage clients (local disk, GCS, S3)
// with this interface.
type Storage interface {
	// SaveFile saves data at path and returns the public URL.
	// The path is relative, e.g. "imageforge/20240101120000_abcd.png".
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}
