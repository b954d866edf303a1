package genpipe

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ArtifactDir is the subdirectory of the media root holding generated images.
const ArtifactDir = "imageforge"

// FileStorage writes artifacts below a local media root.
type FileStorage struct {
	// Root is the media root directory.
	Root string

	// BaseURL is the public prefix for stored files, e.g. "/uploads/".
	BaseURL string
}

// Ensure FileStorage implements Storage.
var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates a FileStorage from media settings.
func NewFileStorage(media MediaConfig) *FileStorage {
	return &FileStorage{
		Root:    media.Root,
		BaseURL: media.BaseURL,
	}
}

// SaveFile writes data to Root/relPath and returns its public URL.
func (s *FileStorage) SaveFile(ctx context.Context, data []byte, relPath string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := path.Clean("/" + filepath.ToSlash(relPath))[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage path %q", relPath)
	}

	target := filepath.Join(s.Root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s (%s): %w", clean, contentType, err)
	}

	return MediaURL(s.BaseURL, clean), nil
}

// MediaURL joins a public base URL and a relative artifact path.
func MediaURL(baseURL, relPath string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "/"
	}
	if strings.HasSuffix(base, "/") {
		return base + strings.TrimLeft(relPath, "/")
	}
	return base + "/" + strings.TrimLeft(relPath, "/")
}

// artifactPath returns "imageforge/<YYYYmmddHHMMSS>_<id>.<ext>".
func artifactPath(stamp, id, ext string) string {
	return path.Join(ArtifactDir, stamp+"_"+id+"."+ext)
}

// extensionFromMIME returns a file extension for the MIME types the
// pipeline writes.
func extensionFromMIME(mime string) string {
	switch mime {
	case MIMETypeSVG:
		return "svg"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
