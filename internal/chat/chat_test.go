package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromType(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"message", KindMessage},
		{"MESSAGE", KindMessage},
		{"not-message", KindOther},
		{"presence_change", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindFromType(tt.input), "KindFromType(%q)", tt.input)
	}
}

func TestEvent_IsMessage(t *testing.T) {
	assert.True(t, Event{Kind: KindMessage}.IsMessage())
	assert.False(t, Event{Kind: KindConnected}.IsMessage())
	assert.False(t, Event{}.IsMessage())
}

func TestValidateReply(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "Hi how are you?", false},
		{"url", "http://giphy.com/gifs/YFRoLKy1kiY00", false},
		{"empty", "", true},
		{"whitespace only", "   \t", true},
		{"at limit", strings.Repeat("a", MaxReplyBytes), false},
		{"over limit", strings.Repeat("a", MaxReplyBytes+1), true},
		{"invalid utf8", "bad \xff byte", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReply(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
