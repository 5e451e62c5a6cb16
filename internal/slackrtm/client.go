// Package slackrtm adapts a Slack RTM connection to platform.Client. The RTM
// session snapshot (self, team, channels, groups, IMs) is captured on every
// connect and serves as the first-level conversation registry; unknown ids
// fall back to the conversations API.
package slackrtm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/nlopes/slack"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/platform"
)

// Config holds Slack connection settings.
type Config struct {
	Token string
	Debug bool
}

// Client is a Slack RTM platform client.
type Client struct {
	api *slack.Client

	mu      sync.RWMutex
	session session
}

// New creates a Slack client. Nothing connects until Run.
func New(cfg Config) *Client {
	return &Client{
		api: slack.New(cfg.Token, slack.OptionDebug(cfg.Debug)),
	}
}

// Run opens the RTM connection and streams events. The RTM manager handles
// reconnects itself; only an authentication failure ends the stream.
func (c *Client) Run(ctx context.Context, events chan<- chat.Event) error {
	rtm := c.api.NewRTM(slack.RTMOptionUseStart(true))
	go rtm.ManageConnection()
	defer func() {
		if err := rtm.Disconnect(); err != nil {
			log.Printf("[slack] disconnect: %v", err)
		}
	}()

	emit := func(ev chat.Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-rtm.IncomingEvents:
			switch ev := msg.Data.(type) {
			case *slack.ConnectedEvent:
				if ev.Info == nil {
					continue
				}
				c.mu.Lock()
				c.session = sessionFromInfo(ev.Info)
				c.mu.Unlock()
				log.Printf("[slack] connected (connection #%d)", ev.ConnectionCount)
				if !emit(chat.Event{ID: uuid.New().String(), Kind: chat.KindConnected}) {
					return nil
				}

			case *slack.MessageEvent:
				if !emit(messageEvent(ev)) {
					return nil
				}

			case *slack.InvalidAuthEvent:
				return errors.New("slack: invalid credentials")

			case *slack.ConnectionErrorEvent:
				log.Printf("[slack] connection error (attempt %d, retry in %s): %v", ev.Attempt, ev.Backoff, ev.ErrorObj)

			case *slack.RTMError:
				log.Printf("[slack] rtm error: %s", ev.Error())

			case *slack.DisconnectedEvent:
				log.Printf("[slack] disconnected intentional=%v", ev.Intentional)

			default:
				if !emit(chat.Event{ID: uuid.New().String(), Kind: chat.KindOther}) {
					return nil
				}
			}
		}
	}
}

// Identity returns the bot identity from the latest RTM session.
func (c *Client) Identity() platform.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.identity
}

// Membership returns the conversations from the latest RTM session.
func (c *Client) Membership(context.Context) (platform.Membership, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.membership(), nil
}

// Resolve looks the channel up in the session snapshot and falls back to the
// conversations API.
func (c *Client) Resolve(ctx context.Context, channelID string) (platform.Conversation, error) {
	c.mu.RLock()
	name, ok := c.session.names[channelID]
	c.mu.RUnlock()
	if ok {
		return &conversation{api: c.api, id: channelID, name: name}, nil
	}

	ch, err := c.api.GetConversationInfoContext(ctx, channelID, false)
	if err != nil {
		if isNotFound(err) {
			return nil, platform.ErrConversationNotFound
		}
		return nil, fmt.Errorf("slack: conversation info %s: %w", channelID, err)
	}
	return &conversation{api: c.api, id: ch.ID, name: ch.Name}, nil
}

func isNotFound(err error) bool {
	switch err.Error() {
	case "channel_not_found", "not_in_channel", "user_not_found":
		return true
	}
	return false
}

// messageEvent converts an RTM message into a chat event.
func messageEvent(ev *slack.MessageEvent) chat.Event {
	var ts int64
	if f, err := strconv.ParseFloat(ev.Timestamp, 64); err == nil {
		ts = int64(f)
	}
	return chat.Event{
		ID:        uuid.New().String(),
		Kind:      chat.KindFromType(ev.Type),
		Text:      ev.Text,
		ChannelID: ev.Channel,
		AuthorID:  ev.User,
		Ts:        ts,
	}
}

type conversation struct {
	api  *slack.Client
	id   string
	name string
}

func (cv *conversation) ID() string   { return cv.id }
func (cv *conversation) Name() string { return cv.name }

// Send posts text to the conversation as the bot user.
func (cv *conversation) Send(ctx context.Context, text string) error {
	_, _, err := cv.api.PostMessageContext(ctx, cv.id,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return &platform.SendError{ChannelID: cv.id, Err: err}
	}
	return nil
}
