package genpipe

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/mitchellh/go-wordwrap"
)

const (
	canvasSize      = 768
	wrapWidth       = 28
	lineHeight      = 34
	emptyCanvasText = "Vision in progress"
	stampLayout     = "20060102150405"
)

// ForgeOptions carries the director outputs attached to placeholders.
// Blank fields default to the trimmed prompt.
type ForgeOptions struct {
	Caption        string
	DirectorPrompt string
}

// PlaceholderRenderer writes deterministic SVG cards derived from a prompt.
type PlaceholderRenderer struct {
	storage  Storage
	mediaURL string
	now      func() time.Time
	logger   *slog.Logger
}

// NewPlaceholderRenderer creates a renderer. mediaURL is used to address
// artifacts when storage is nil or a write fails.
func NewPlaceholderRenderer(storage Storage, mediaURL string, now func() time.Time, logger *slog.Logger) *PlaceholderRenderer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaceholderRenderer{
		storage:  storage,
		mediaURL: mediaURL,
		now:      now,
		logger:   logger,
	}
}

// ForgeImages renders count placeholder cards for prompt. Every call returns
// count artifacts; the error reports storage failures, if any.
func (r *PlaceholderRenderer) ForgeImages(ctx context.Context, prompt string, count int, opts ForgeOptions) ([]GeneratedImage, error) {
	trimmed := NormalizePrompt(prompt)
	count = ClampImageCount(count)
	caption := strings.TrimSpace(opts.Caption)
	if caption == "" {
		caption = trimmed
	}
	directorPrompt := strings.TrimSpace(opts.DirectorPrompt)
	if directorPrompt == "" {
		directorPrompt = trimmed
	}

	ts := r.now()
	stamp := ts.Format(stampLayout)
	iso := ts.Format(time.RFC3339Nano)

	var errs []error
	images := make([]GeneratedImage, 0, count)
	for i := 0; i < count; i++ {
		sum := sha1.Sum([]byte(fmt.Sprintf("%s:%s:%d", trimmed, iso, i)))
		digest := hex.EncodeToString(sum[:])

		palette := derivePalette(digest)
		seed, _ := strconv.ParseUint(digest[:12], 16, 64)
		card := RenderSVG(trimmed, palette, seed)

		rel := artifactPath(stamp, digest[:10], extensionFromMIME(MIMETypeSVG))
		url, err := r.save(ctx, []byte(card), rel)
		if err != nil {
			errs = append(errs, err)
			r.logger.Error("failed to store placeholder",
				"path", rel,
				"error", err.Error(),
			)
		}

		images = append(images, GeneratedImage{
			Identifier:     digest[:16],
			Prompt:         trimmed,
			RelativePath:   rel,
			URL:            url,
			MIMEType:       MIMETypeSVG,
			Palette:        palette,
			CreatedAt:      ts,
			Provider:       ProviderPlaceholder,
			Caption:        caption,
			DirectorPrompt: directorPrompt,
		})
	}

	return images, errors.Join(errs...)
}

func (r *PlaceholderRenderer) save(ctx context.Context, data []byte, rel string) (string, error) {
	if r.storage == nil {
		return MediaURL(r.mediaURL, rel), ErrStorageNotConfigured
	}
	url, err := r.storage.SaveFile(ctx, data, rel, MIMETypeSVG)
	if err != nil {
		return MediaURL(r.mediaURL, rel), err
	}
	return url, nil
}

// derivePalette reads three 6-hex-digit colors from a digest.
func derivePalette(digest string) []string {
	palette := make([]string, 3)
	for i := range palette {
		start := i * 6
		seg := ""
		if start < len(digest) {
			seg = digest[start:min(start+6, len(digest))]
		}
		palette[i] = "#" + (seg + "000000")[:6]
	}
	return palette
}

// RenderSVG draws the placeholder card. Output depends only on its inputs.
func RenderSVG(prompt string, palette []string, seed uint64) string {
	gradientID := fmt.Sprintf("grad-%x", seed)
	if len(gradientID) > 12 {
		gradientID = gradientID[:12]
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	lines := wrapText(prompt, wrapWidth)
	if len(lines) == 0 {
		lines = []string{emptyCanvasText}
	}
	startY := canvasSize/2 - (len(lines)-1)*lineHeight/2

	stops := make([]svg.Offcolor, len(palette))
	for i, color := range palette {
		stops[i] = svg.Offcolor{
			Offset:  uint8(i * 100 / max(1, len(palette)-1)),
			Color:   color,
			Opacity: 0.95,
		}
	}

	var sb strings.Builder
	canvas := svg.New(&sb)
	canvas.Startview(canvasSize, canvasSize, 0, 0, canvasSize, canvasSize)
	canvas.Def()
	canvas.LinearGradient(gradientID, 0, 0, 100, 100, stops)
	canvas.DefEnd()
	canvas.Roundrect(0, 0, canvasSize, canvasSize, 42, 42, fmt.Sprintf(`fill="url(#%s)"`, gradientID))

	for _, color := range palette {
		radius := 120 + rng.IntN(101)
		cx := rng.IntN(canvasSize + 1)
		cy := rng.IntN(canvasSize + 1)
		opacity := 0.18 + rng.Float64()*0.14
		canvas.Circle(cx, cy, radius, fmt.Sprintf(`fill="%s" opacity="%.2f"`, color, opacity))
	}

	for i, line := range lines {
		canvas.Text(canvasSize/2, startY+i*lineHeight, line, textStyle)
	}

	canvas.End()
	return sb.String()
}

const textStyle = `text-anchor="middle" font-family="Segoe UI, Helvetica Neue, Arial, sans-serif" ` +
	`font-size="26" fill="#0f172a" opacity="0.9"`

// wrapText breaks text into lines of at most width runes on whitespace,
// splitting words that are longer than width.
func wrapText(text string, width int) []string {
	wrapped := wordwrap.WrapString(strings.Join(strings.Fields(text), " "), uint(width))

	var lines []string
	for _, line := range strings.Split(wrapped, "\n") {
		r := []rune(line)
		for len(r) > width {
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		if len(r) > 0 {
			lines = append(lines, string(r))
		}
	}
	return lines
}
