// Package llamacpp runs GGUF models in process through llama.cpp.
//
// The runtime needs cgo and is only compiled with the "llama" build tag.
// Default builds return genpipe.ErrLocalUnavailable from the loader.
package llamacpp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mhpenta/genpipe"
)

// Loader returns a genpipe.LocalLoader for the model described by cfg.
func Loader(cfg genpipe.LocalConfig, logger *slog.Logger) genpipe.LocalLoader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "llamacpp", "model_path", cfg.ModelPath)

	return func(ctx context.Context) (genpipe.LocalModel, error) {
		if strings.TrimSpace(cfg.ModelPath) == "" {
			return nil, fmt.Errorf("%w: no model path configured", genpipe.ErrLocalUnavailable)
		}
		if _, err := os.Stat(cfg.ModelPath); err != nil {
			return nil, fmt.Errorf("%w: %w", genpipe.ErrLocalUnavailable, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		model, err := load(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("local model loaded",
			"context_size", cfg.ContextSize,
			"gpu_layers", cfg.GPULayers,
		)
		return model, nil
	}
}
