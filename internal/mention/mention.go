// Package mention detects references to a user in chat message text. Mentions
// use the platform form <@ID>, optionally carrying a display label as
// <@ID|label>.
package mention

import "strings"

// Format returns the canonical mention token for id.
func Format(id string) string {
	return "<@" + id + ">"
}

// IsMentioned reports whether text contains a mention of botID. Empty text or
// an empty botID never match.
func IsMentioned(text, botID string) bool {
	if text == "" || botID == "" {
		return false
	}

	prefix := "<@" + botID
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], prefix)
		if j < 0 {
			return false
		}
		end := i + j + len(prefix)
		if end < len(text) && (text[end] == '>' || text[end] == '|') {
			return true
		}
		i = end
	}
	return false
}
