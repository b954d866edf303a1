package genpipe

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DegradedMarker ends every reply produced by the heuristic tier.
const DegradedMarker = "(Model temporarily unavailable; provided a backup response.)"

// EmptyLocalResponse is substituted when the local model produces nothing usable.
const EmptyLocalResponse = "(The model returned an empty response.)"

const (
	summaryWidth       = 160
	summaryPlaceholder = "…"
	maxKeyIdeas        = 3
)

const readyReply = "I'm here and ready whenever you are. The full model is still warming up, " +
	"so feel free to ask a question in the meantime.\n\n" + DegradedMarker

const noKeyIdeasLine = "- I'm ready to dig in whenever you are."

// IsDegraded reports whether reply came from the heuristic tier.
func IsDegraded(reply string) bool {
	return strings.HasSuffix(strings.TrimSpace(reply), DegradedMarker)
}

// HeuristicReply builds a canned reply from the latest non-empty user turn.
// It is deterministic and never fails.
func HeuristicReply(turns []ConversationTurn) string {
	latest := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != RoleUser {
			continue
		}
		if c := strings.TrimSpace(turns[i].Content); c != "" {
			latest = c
			break
		}
	}
	if latest == "" {
		return readyReply
	}

	words := strings.Fields(latest)
	normalized := strings.Join(words, " ")

	ideas := keyIdeas(words)
	lines := noKeyIdeasLine
	if len(ideas) > 0 {
		parts := make([]string, len(ideas))
		for i, idea := range ideas {
			parts[i] = "- " + titleCase(idea)
		}
		lines = strings.Join(parts, "\n")
	}

	var sb strings.Builder
	sb.WriteString("I'm operating in a lightweight mode right now, so here's a quick reflection ")
	sb.WriteString("instead of a full model reply.\n\n")
	sb.WriteString("Summary: ")
	sb.WriteString(shorten(normalized, summaryWidth))
	sb.WriteString("\nKey ideas I'm noticing:\n")
	sb.WriteString(lines)
	sb.WriteString("\n\nLet me know if you'd like to explore any of those in more detail.\n\n")
	sb.WriteString(DegradedMarker)
	return sb.String()
}

// keyIdeas returns up to three distinct lowercase alphanumeric tokens longer
// than three characters, in first-seen order.
func keyIdeas(words []string) []string {
	seen := make([]string, 0, maxKeyIdeas)
	for _, w := range words {
		token := strings.Map(func(r rune) rune {
			r = unicode.ToLower(r)
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if len(token) <= 3 || contains(seen, token) {
			continue
		}
		seen = append(seen, token)
		if len(seen) == maxKeyIdeas {
			break
		}
	}
	return seen
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// titleCase upper-cases every letter that follows a non-letter.
func titleCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// shorten truncates whitespace-normalized text to width runes on a word
// boundary, appending the placeholder when anything was dropped.
func shorten(text string, width int) string {
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	budget := width - utf8.RuneCountInString(summaryPlaceholder)

	var sb strings.Builder
	n := 0
	for _, w := range strings.Fields(text) {
		wl := utf8.RuneCountInString(w)
		need := wl
		if n > 0 {
			need++
		}
		if n+need > budget {
			break
		}
		if n > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w)
		n += need
	}
	if n == 0 {
		// first word alone is too long, cut it
		return string([]rune(text)[:budget]) + summaryPlaceholder
	}
	return sb.String() + summaryPlaceholder
}
