package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/mhpenta/genpipe"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// printError prints a titled error with suggestions to stderr and returns
// a plain error for cobra, which has error printing silenced.
func printError(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(os.Stderr)
		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  - %s\n", s)
		}
	}
	return fmt.Errorf("%s", title)
}

func printReply(w io.Writer, reply string) {
	if genpipe.IsDegraded(reply) {
		yellow.Fprintln(w, reply)
		return
	}
	fmt.Fprintln(w, reply)
}

func providerColor(p genpipe.Provider) *color.Color {
	if p == genpipe.ProviderPlaceholder {
		return yellow
	}
	return cyan
}

func printImages(w io.Writer, images []genpipe.GeneratedImage) {
	if len(images) == 0 {
		return
	}
	first := images[0]
	if first.Caption != "" {
		green.Fprintf(w, "%s\n", first.Caption)
	}
	if first.DirectorPrompt != "" && first.DirectorPrompt != first.Prompt {
		faint.Fprintf(w, "director: %s\n", first.DirectorPrompt)
	}
	for _, img := range images {
		providerColor(img.Provider).Fprintf(w, "[%s] ", img.Provider)
		fmt.Fprintf(w, "%s  %s\n", img.URL, img.MIMEType)
		if len(img.Palette) > 0 {
			faint.Fprintf(w, "    palette %v\n", img.Palette)
		}
	}
}
