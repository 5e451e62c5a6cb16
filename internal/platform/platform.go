// Package platform defines the boundary between the reply router and a chat
// platform connection. Adapters (Slack RTM, websocket gateway, NATS) implement
// Client; the router only sees Resolver and Conversation.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/whisper/replybot/internal/chat"
)

// ErrConversationNotFound is returned by Resolve when a channel id does not
// map to a known channel, group or direct message.
var ErrConversationNotFound = errors.New("platform: conversation not found")

// SendError wraps a transport failure while posting a reply.
type SendError struct {
	ChannelID string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("platform: send to %s: %v", e.ChannelID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Identity describes who the bot is on the platform.
type Identity struct {
	SelfID   string
	SelfName string
	TeamName string
}

// Membership is a snapshot of the conversations the bot can see: channels it
// is a member of, open unarchived groups and open direct messages.
type Membership struct {
	Channels []string
	Groups   []string
	DMs      []string
}

// Conversation is a reply target. Handles are not retained past one send.
type Conversation interface {
	ID() string
	Name() string
	Send(ctx context.Context, text string) error
}

// Resolver looks up the conversation for a channel id.
type Resolver interface {
	Resolve(ctx context.Context, channelID string) (Conversation, error)
}

// Client is a live platform connection.
type Client interface {
	Resolver

	// Run connects and writes events until ctx is cancelled (returns nil) or
	// the connection fails beyond recovery (returns the error). The first
	// event of every connection is a chat.KindConnected event.
	Run(ctx context.Context, events chan<- chat.Event) error

	// Identity is valid once the connected event has been emitted.
	Identity() Identity

	Membership(ctx context.Context) (Membership, error)
}
