package genpipe

import (
	"path"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is a single message in a conversation history.
// Generators read turns but never modify them.
type ConversationTurn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// Ordinal is the position of the turn within its conversation.
	Ordinal int `json:"ordinal,omitempty" yaml:"ordinal,omitempty"`
}

// Provider labels which tier produced an artifact.
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderGemini      Provider = "gemini"
	ProviderPlaceholder Provider = "placeholder"
)

// MIME types written by the image tiers.
const (
	MIMETypePNG = "image/png"
	MIMETypeSVG = "image/svg+xml"
)

// GeneratedImage describes a stored image artifact.
type GeneratedImage struct {
	// Identifier is unique within the batch that produced it.
	Identifier string `json:"id"`

	// Prompt is the user prompt after trimming and defaulting.
	Prompt string `json:"prompt"`

	// RelativePath is the storage path below the media root,
	// e.g. "imageforge/20240501120000_ab12cd34ef.svg".
	RelativePath string `json:"relative_path"`

	// URL is the public URL returned by storage.
	URL string `json:"url"`

	MIMEType string   `json:"mime_type"`
	Palette  []string `json:"palette"`

	CreatedAt time.Time `json:"created_at"`
	Provider  Provider  `json:"provider"`

	Caption        string `json:"caption"`
	DirectorPrompt string `json:"director_prompt"`
}

// Filename returns the base name of the stored file.
func (g GeneratedImage) Filename() string {
	if g.RelativePath == "" {
		return ""
	}
	return path.Base(g.RelativePath)
}

// RemoteImage is the raw payload returned by an image client.
type RemoteImage struct {
	Data     []byte
	MIMEType string
}
