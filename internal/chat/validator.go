package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxReplyBytes = 4000 // platform limit for a single posted message
)

// ValidateReply checks that a reply text can be posted as a single message.
func ValidateReply(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("reply text is empty")
	}
	if len(text) > MaxReplyBytes {
		return fmt.Errorf("reply exceeds %d byte limit", MaxReplyBytes)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("reply contains invalid UTF-8")
	}
	return nil
}
