package genpipe

import (
	"context"
	"log/slog"
	"time"
)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a structured logger for every generator.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithStorage replaces the default FileStorage.
func WithStorage(storage Storage) PipelineOption {
	return func(p *Pipeline) {
		p.storage = storage
	}
}

// WithLocalLoader sets how the local model is constructed.
func WithLocalLoader(loader LocalLoader) PipelineOption {
	return func(p *Pipeline) {
		p.loader = loader
	}
}

// WithClock sets the time source used for artifact names and timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline wires the text and image generators over one set of remote
// handles, one local model slot and one storage backend.
type Pipeline struct {
	logger  *slog.Logger
	storage Storage
	loader  LocalLoader
	now     func() time.Time

	local       *LocalPipeline
	text        *TextGenerator
	director    *ImageDirector
	placeholder *PlaceholderRenderer
	images      *ImageGenerator
}

// NewPipeline creates a Pipeline. clients may be nil, in which case only
// the local and fallback tiers run.
//
// Example:
//
//	registry := inference.NewRegistry(cfg)
//	p := genpipe.NewPipeline(cfg, registry,
//	    genpipe.WithLogger(slog.Default()),
//	    genpipe.WithLocalLoader(llamacpp.Loader(cfg.Local, slog.Default())),
//	)
//	defer p.Close()
//	reply := p.Reply(ctx, turns)
func NewPipeline(cfg Config, clients ClientSource, opts ...PipelineOption) *Pipeline {
	cfg = cfg.Normalize()

	p := &Pipeline{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.storage == nil {
		p.storage = NewFileStorage(cfg.Media)
	}

	p.local = NewLocalPipeline(p.loader)
	p.text = NewTextGenerator(p.logger.With("component", "text"),
		DefaultTextTiers(clients, p.local, cfg.Sampling)...)
	p.director = NewImageDirector(NewRemoteTextTier(clients, DirectorSampling()),
		p.logger.With("component", "director"))
	p.placeholder = NewPlaceholderRenderer(p.storage, cfg.Media.BaseURL, p.now,
		p.logger.With("component", "placeholder"))
	p.images = NewImageGenerator(ImageGeneratorConfig{
		Clients:     clients,
		Director:    p.director,
		Placeholder: p.placeholder,
		Storage:     p.storage,
		Params:      cfg.ImageParams,
		Concurrency: cfg.ImageConcurrency,
		Now:         p.now,
		Logger:      p.logger.With("component", "images"),
	})
	return p
}

// Reply returns a non-empty reply for turns.
func (p *Pipeline) Reply(ctx context.Context, turns []ConversationTurn) string {
	return p.text.GenerateResponse(ctx, turns)
}

// ReplyTo generates a reply for conv and appends it as an assistant turn.
func (p *Pipeline) ReplyTo(ctx context.Context, conv *Conversation) ConversationTurn {
	reply := p.text.GenerateResponse(ctx, conv.Turns())
	return conv.Append(RoleAssistant, reply)
}

// GenerateImages returns an image batch for prompt.
func (p *Pipeline) GenerateImages(ctx context.Context, prompt string, count int) []GeneratedImage {
	return p.images.GenerateImages(ctx, prompt, count)
}

// Text returns the text generator.
func (p *Pipeline) Text() *TextGenerator { return p.text }

// Images returns the image generator.
func (p *Pipeline) Images() *ImageGenerator { return p.images }

// Director returns the prompt director.
func (p *Pipeline) Director() *ImageDirector { return p.director }

// Placeholders returns the placeholder renderer.
func (p *Pipeline) Placeholders() *PlaceholderRenderer { return p.placeholder }

// Storage returns the configured storage backend.
func (p *Pipeline) Storage() Storage { return p.storage }

// Close releases the local model if it was loaded.
func (p *Pipeline) Close() error {
	if err := p.local.Close(); err != nil {
		p.logger.Error("failed to close local model", "error", err.Error())
		return err
	}
	return nil
}
