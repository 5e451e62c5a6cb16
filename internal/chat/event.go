// Package chat defines the platform-neutral chat event and reply checks.
package chat

import "strings"

// Kind classifies an inbound platform event.
type Kind string

const (
	KindMessage   Kind = "message"
	KindConnected Kind = "connected" // connection-opened signal, emitted once per connection
	KindOther     Kind = "other"
)

// Event is a single inbound notification from the chat platform. Events are
// owned by the stream and are not retained after routing.
type Event struct {
	ID        string // correlation id assigned on ingestion
	Kind      Kind
	Text      string // empty when the platform sent no text
	ChannelID string
	AuthorID  string
	Ts        int64 // unix timestamp, zero if unknown
}

// KindFromType maps a platform event type string onto a Kind. Anything that
// is not a plain message is KindOther; connection signals are emitted by the
// adapters directly.
func KindFromType(t string) Kind {
	if strings.EqualFold(t, string(KindMessage)) {
		return KindMessage
	}
	return KindOther
}

// IsMessage reports whether the event is a chat message.
func (e Event) IsMessage() bool {
	return e.Kind == KindMessage
}
