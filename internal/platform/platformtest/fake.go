// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"errors"
	"sync"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/platform"
)

// Sent records one delivered reply.
type Sent struct {
	ChannelID string
	Text      string
}

// Client is a scripted platform connection. Conversations must be registered
// with AddConversation before they can be resolved.
type Client struct {
	Self       platform.Identity
	Members    platform.Membership
	Script     []chat.Event // emitted after the connected event
	RunErr     error        // returned by Run once Script is drained
	StayOpen   bool         // block after the script until ctx is done
	FailSendTo map[string]error

	mu       sync.Mutex
	convs    map[string]string // id -> name
	sent     []Sent
	resolves int
}

// NewClient returns a fake client for the given bot id.
func NewClient(selfID string) *Client {
	return &Client{
		Self:       platform.Identity{SelfID: selfID, SelfName: "replybot", TeamName: "test-team"},
		FailSendTo: make(map[string]error),
		convs:      make(map[string]string),
	}
}

// AddConversation registers a resolvable conversation.
func (c *Client) AddConversation(id, name string) {
	c.mu.Lock()
	c.convs[id] = name
	c.mu.Unlock()
}

// Run emits a connected event followed by Script.
func (c *Client) Run(ctx context.Context, events chan<- chat.Event) error {
	all := append([]chat.Event{{ID: "connected", Kind: chat.KindConnected}}, c.Script...)
	for _, ev := range all {
		select {
		case <-ctx.Done():
			return nil
		case events <- ev:
		}
	}
	if c.RunErr != nil {
		return c.RunErr
	}
	if c.StayOpen {
		<-ctx.Done()
	}
	return nil
}

func (c *Client) Identity() platform.Identity {
	return c.Self
}

func (c *Client) Membership(context.Context) (platform.Membership, error) {
	return c.Members, nil
}

func (c *Client) Resolve(_ context.Context, channelID string) (platform.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolves++

	name, ok := c.convs[channelID]
	if !ok {
		return nil, platform.ErrConversationNotFound
	}
	return &conversation{client: c, id: channelID, name: name}, nil
}

// Sent returns a copy of all delivered replies.
func (c *Client) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sent, len(c.sent))
	copy(out, c.sent)
	return out
}

// Resolves returns how many times Resolve was called.
func (c *Client) Resolves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolves
}

type conversation struct {
	client *Client
	id     string
	name   string
}

func (cv *conversation) ID() string   { return cv.id }
func (cv *conversation) Name() string { return cv.name }

func (cv *conversation) Send(_ context.Context, text string) error {
	cv.client.mu.Lock()
	defer cv.client.mu.Unlock()

	if err := cv.client.FailSendTo[cv.id]; err != nil {
		return &platform.SendError{ChannelID: cv.id, Err: err}
	}
	cv.client.sent = append(cv.client.sent, Sent{ChannelID: cv.id, Text: text})
	return nil
}

// ErrBoom is a generic transport failure for tests.
var ErrBoom = errors.New("boom")
