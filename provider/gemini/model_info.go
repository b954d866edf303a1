package gemini

// Model name constants - the actual API model names.
const (
	// DefaultTextModel is used for replies and director prompts.
	DefaultTextModel = "gemini-2.5-flash"

	// DefaultImageModel is Gemini 2.5 Flash Image (nano-banana).
	DefaultImageModel = "gemini-2.5-flash-image"

	// ProImageModel is Gemini 3 Pro Image (nano-banana-2).
	ProImageModel = "gemini-3-pro-image-preview"
)
