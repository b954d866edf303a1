package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhpenta/genpipe"
	"github.com/mhpenta/genpipe/config"
	"github.com/mhpenta/genpipe/inference"
	"github.com/mhpenta/genpipe/provider/llamacpp"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg    genpipe.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "genpipe",
	Short: "genpipe - resilient text and image generation",
	Long: `genpipe answers conversations and produces image batches.

Replies fall back from the remote model to a local model and finally to a
canned heuristic reply, so a reply is always produced. Image batches fall
back to deterministic SVG placeholders when the remote image service
cannot deliver every variation.

Configuration is read from an optional file (--config) and the environment
(HF_API_TOKEN, HF_TEXT_MODEL, HF_IMAGE_MODEL, MEDIA_ROOT, ...).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return printError("failed to load configuration", err.Error(),
				[]string{"Check the file passed with --config"})
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		if logFormat != "" {
			loaded.Log.Format = logFormat
		}

		l, err := config.NewLogger(loaded.Log, os.Stderr)
		if err != nil {
			return printError("invalid logging configuration", err.Error(),
				[]string{"Valid levels: debug, info, warn, error", "Valid formats: text, json"})
		}

		cfg = loaded
		logger = l
		slog.SetDefault(l)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Interrupts cancel in-flight generation.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override the log format (text, json)")
}

// newPipeline builds a pipeline over the shared remote registry. Callers
// close both values.
func newPipeline() (*genpipe.Pipeline, *inference.Registry) {
	registry := inference.NewRegistry(cfg, inference.WithLogger(logger.With("component", "registry")))
	p := genpipe.NewPipeline(cfg, registry,
		genpipe.WithLogger(logger),
		genpipe.WithLocalLoader(llamacpp.Loader(cfg.Local, logger.With("component", "llamacpp"))),
	)
	return p, registry
}

func closePipeline(p *genpipe.Pipeline, registry *inference.Registry) {
	if err := p.Close(); err != nil {
		logger.Warn("failed to close pipeline", "error", err.Error())
	}
	if err := registry.Close(); err != nil {
		logger.Warn("failed to close registry", "error", err.Error())
	}
}
