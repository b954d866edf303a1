package commands

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/mhpenta/genpipe"
)

var (
	imagesPrompt string
	imagesCount  string
	imagesJSON   bool
)

var imagesCmd = &cobra.Command{
	Use:   "images [PROMPT]",
	Short: "Generate an image batch for a prompt",
	Long: `Generate an image batch for a prompt.

The remote image model renders every variation or none: if any variation
fails, the whole batch is produced as SVG placeholders instead. Counts are
clamped to the range 1-8; a non-numeric count yields one image.

Examples:
  genpipe images "sunset over the valley" --count 2
  genpipe images --prompt "a lighthouse in fog" --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImages,
}

func init() {
	imagesCmd.Flags().StringVarP(&imagesPrompt, "prompt", "p", "", "Image prompt (alternative to the positional argument)")
	imagesCmd.Flags().StringVarP(&imagesCount, "count", "n", "1", "Number of variations")
	imagesCmd.Flags().BoolVar(&imagesJSON, "json", false, "Print the batch as JSON")

	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
	prompt := imagesPrompt
	if len(args) > 0 && strings.TrimSpace(prompt) == "" {
		prompt = args[0]
	}

	p, registry := newPipeline()
	defer closePipeline(p, registry)

	ctx := cmd.Context()
	images := p.GenerateImages(ctx, prompt, genpipe.ParseImageCount(imagesCount))

	if imagesJSON {
		out, err := sonic.ConfigStd.MarshalIndent(images, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode images: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	printImages(cmd.OutOrStdout(), images)
	return nil
}
