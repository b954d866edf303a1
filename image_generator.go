package genpipe

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// ImageGenerator produces image batches from the remote image handle and
// falls back to placeholders. A batch never mixes providers.
type ImageGenerator struct {
	clients     ClientSource
	director    *ImageDirector
	placeholder *PlaceholderRenderer
	storage     Storage
	params      ImageParams
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// ImageGeneratorConfig wires an ImageGenerator.
type ImageGeneratorConfig struct {
	Clients     ClientSource
	Director    *ImageDirector
	Placeholder *PlaceholderRenderer
	Storage     Storage
	Params      ImageParams
	Concurrency int
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewImageGenerator creates an ImageGenerator. Missing collaborators get
// defaults: no remote handles, a director without remote access and a
// placeholder renderer over the same storage.
func NewImageGenerator(cfg ImageGeneratorConfig) *ImageGenerator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Director == nil {
		cfg.Director = NewImageDirector(NewRemoteTextTier(cfg.Clients, DirectorSampling()), cfg.Logger)
	}
	if cfg.Placeholder == nil {
		cfg.Placeholder = NewPlaceholderRenderer(cfg.Storage, "/", cfg.Now, cfg.Logger)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &ImageGenerator{
		clients:     cfg.Clients,
		director:    cfg.Director,
		placeholder: cfg.Placeholder,
		storage:     cfg.Storage,
		params:      cfg.Params.Normalize(),
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
}

// GenerateImages returns between 1 and MaxImagesPerRequest artifacts for
// prompt. It never fails; remote failures yield placeholders.
func (g *ImageGenerator) GenerateImages(ctx context.Context, prompt string, count int) []GeneratedImage {
	logger := g.logger.With("request_id", uuid.NewString())
	prompt = NormalizePrompt(prompt)
	count = ClampImageCount(count)
	start := time.Now()

	directorPrompt, caption := g.director.EnhancePrompt(ctx, prompt)

	if client := g.imageClient(ctx); client != nil {
		images, err := g.remoteBatch(ctx, client, prompt, directorPrompt, caption, count)
		if err == nil {
			logger.Info("images generated",
				"provider", string(client.Info().Provider),
				"count", len(images),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return images
		}
		logger.Warn("remote image batch failed, using placeholders",
			"target", client.Info().Target(),
			"error", err.Error(),
		)
	}

	images, err := g.placeholder.ForgeImages(ctx, prompt, count, ForgeOptions{
		Caption:        caption,
		DirectorPrompt: directorPrompt,
	})
	if err != nil {
		logger.Error("placeholder storage failed", "error", err.Error())
	}
	logger.Info("images generated",
		"provider", string(ProviderPlaceholder),
		"count", len(images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return images
}

func (g *ImageGenerator) imageClient(ctx context.Context) ImageClient {
	if g.clients == nil {
		return nil
	}
	return g.clients.ImageClient(ctx)
}

type renderedImage struct {
	id      string
	data    []byte
	palette []string
}

// remoteBatch requests every variation concurrently. The first failure
// cancels the rest and nothing is persisted unless all variations succeed.
func (g *ImageGenerator) remoteBatch(ctx context.Context, client ImageClient, prompt, directorPrompt, caption string, count int) ([]GeneratedImage, error) {
	if g.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	rendered := make([]renderedImage, count)
	p := pool.New().WithMaxGoroutines(g.concurrency).WithContext(ctx).WithCancelOnError()
	for i := 0; i < count; i++ {
		p.Go(func(ctx context.Context) error {
			variation := fmt.Sprintf("%s, variation %d", directorPrompt, i+1)
			out, err := g.renderVariation(ctx, client, variation)
			if err != nil {
				return fmt.Errorf("variation %d: %w", i+1, err)
			}
			rendered[i] = out
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	ts := g.now()
	stamp := ts.Format(stampLayout)
	provider := client.Info().Provider

	images := make([]GeneratedImage, 0, count)
	for _, r := range rendered {
		rel := artifactPath(stamp, r.id, extensionFromMIME(MIMETypePNG))
		url, err := g.storage.SaveFile(ctx, r.data, rel, MIMETypePNG)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", rel, err)
		}
		images = append(images, GeneratedImage{
			Identifier:     r.id,
			Prompt:         prompt,
			RelativePath:   rel,
			URL:            url,
			MIMEType:       MIMETypePNG,
			Palette:        r.palette,
			CreatedAt:      ts,
			Provider:       provider,
			Caption:        caption,
			DirectorPrompt: directorPrompt,
		})
	}
	return images, nil
}

func (g *ImageGenerator) renderVariation(ctx context.Context, client ImageClient, prompt string) (renderedImage, error) {
	out, err := client.GenerateImage(ctx, prompt, g.params)
	if err != nil {
		return renderedImage{}, err
	}
	if err := ValidateRemoteImage(out); err != nil {
		return renderedImage{}, err
	}

	img, _, err := image.Decode(bytes.NewReader(out.Data))
	if err != nil {
		return renderedImage{}, fmt.Errorf("%w: decode image: %w", ErrUnexpectedPayload, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return renderedImage{}, fmt.Errorf("encode png: %w", err)
	}

	id, err := newSeed()
	if err != nil {
		return renderedImage{}, err
	}

	return renderedImage{
		id:      id,
		data:    buf.Bytes(),
		palette: ExtractPalette(img),
	}, nil
}

// newSeed returns 16 random hex characters.
func newSeed() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
