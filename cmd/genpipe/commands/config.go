package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mhpenta/genpipe"
	"github.com/mhpenta/genpipe/inference"
	"github.com/mhpenta/genpipe/provider/llamacpp"
)

var configResolve bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the resolved configuration with the API token redacted.

With --resolve the remote handles are constructed and their provider and
target are printed. Construction does not send any request.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configResolve, "resolve", false, "Construct remote handles and show their targets")

	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	shown := cfg
	if shown.Token != "" {
		shown.Token = "[redacted]"
	}

	out, err := yaml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, string(out))

	fmt.Fprintf(w, "\nlocal runtime compiled in: %t\n", llamacpp.Available)

	if !configResolve {
		return nil
	}

	registry := inference.NewRegistry(cfg, inference.WithLogger(logger))
	defer registry.Close()

	ctx := cmd.Context()
	printHandle(cmd, "text", registry.TextClient(ctx))
	printHandle(cmd, "image", registry.ImageClient(ctx))
	return nil
}

type describer interface {
	Info() genpipe.HandleInfo
}

func printHandle(cmd *cobra.Command, purpose string, h describer) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-6s ", purpose)
	if h == nil {
		yellow.Fprintln(w, "unavailable")
		return
	}
	info := h.Info()
	cyan.Fprintf(w, "%s", info.Provider)
	fmt.Fprintf(w, " %s\n", info.Target())
}
