package genpipe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validation errors
var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")
)

// Image limits
const (
	// MaxImageSize is the maximum accepted remote image size in bytes (20MB)
	MaxImageSize = 20 * 1024 * 1024

	// MaxImagesPerRequest caps a single batch.
	MaxImagesPerRequest = 8
)

// ValidMIMETypes contains the image MIME types the remote tier can decode.
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidatePrompt validates a text prompt.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ClampImageCount limits count to [1, MaxImagesPerRequest].
func ClampImageCount(count int) int {
	return max(1, min(count, MaxImagesPerRequest))
}

// ParseImageCount parses a user supplied count. Absent or non-numeric
// input yields 1.
func ParseImageCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return 1
	}
	return ClampImageCount(n)
}

// ValidateRemoteImage checks a payload returned by an image client.
func ValidateRemoteImage(img *RemoteImage) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("%w: %w", ErrUnexpectedPayload, ErrEmptyImageData)
	}
	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img.Data), MaxImageSize)
	}

	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(img.MIMEType, ";", 2)[0]))
	if mime != "" && !ValidMIMETypes[mime] {
		return fmt.Errorf("%w: %w: %s", ErrUnexpectedPayload, ErrInvalidMIMEType, img.MIMEType)
	}
	return nil
}
