package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mhpenta/genpipe"
)

var (
	replyHistory  string
	replyMessages []string
)

var replyCmd = &cobra.Command{
	Use:   "reply [MESSAGE]",
	Short: "Generate the next assistant reply for a conversation",
	Long: `Generate the next assistant reply for a conversation.

History is read from a YAML or JSON file holding a list of turns:

  - role: user
    content: Hello there
  - role: assistant
    content: Hi! How can I help?

Every --user flag and the positional MESSAGE are appended as user turns.
Replies produced by the heuristic fallback are highlighted.

Examples:
  genpipe reply "What is a median cut palette?"
  genpipe reply --history chat.yaml --user "and then?"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReply,
}

func init() {
	replyCmd.Flags().StringVar(&replyHistory, "history", "", "YAML or JSON file with prior turns")
	replyCmd.Flags().StringArrayVarP(&replyMessages, "user", "u", nil, "User message to append (repeatable)")

	rootCmd.AddCommand(replyCmd)
}

func runReply(cmd *cobra.Command, args []string) error {
	turns, err := loadHistory(replyHistory)
	if err != nil {
		return printError("failed to read history", err.Error(),
			[]string{"The file must contain a list of {role, content} entries"})
	}

	conv := genpipe.NewConversation(turns...)
	for _, msg := range append(replyMessages, args...) {
		conv.Append(genpipe.RoleUser, msg)
	}

	p, registry := newPipeline()
	defer closePipeline(p, registry)

	ctx := cmd.Context()
	turn := p.ReplyTo(ctx, conv)
	printReply(cmd.OutOrStdout(), turn.Content)
	return nil
}

func loadHistory(path string) ([]genpipe.ConversationTurn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var turns []genpipe.ConversationTurn
	if err := yaml.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range turns {
		turns[i].Role = genpipe.Role(strings.ToLower(strings.TrimSpace(string(turns[i].Role))))
	}
	return turns, nil
}
