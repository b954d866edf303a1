package genpipe

import (
	"strings"
)

// BuildPrompt flattens turns into the transcript format sent to text models:
// one "User: ..." or "Assistant: ..." line per turn followed by a trailing
// "Assistant:" line. Any role other than user is rendered as Assistant.
func BuildPrompt(turns []ConversationTurn) string {
	var sb strings.Builder
	for _, turn := range turns {
		if turn.Role == RoleUser {
			sb.WriteString("User: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(turn.Content)
		sb.WriteByte('\n')
	}
	sb.WriteString("Assistant:")
	return sb.String()
}
