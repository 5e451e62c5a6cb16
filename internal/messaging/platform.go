package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/directory"
	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/protocol"
)

// eventBuffer bounds events held between the NATS reader and the router.
const eventBuffer = 256

// Directory resolves conversation ids registered for the bus.
type Directory interface {
	Get(ctx context.Context, id string) (*directory.Conversation, error)
	Membership(ctx context.Context) (platform.Membership, error)
}

// Publisher sends reply payloads for a channel.
type Publisher interface {
	PublishReply(channelID string, data []byte) error
}

// Bus is a platform.Client over NATS. Events arrive on bot.events as JSON
// objects {type, text, channel, user, ts}; replies are published as
// {type, id, channel, text} on bot.reply.<channel>.
type Bus struct {
	nats     *NATSClient
	pub      Publisher
	dir      Directory
	identity platform.Identity
}

// NewBus creates a bus client. The bus carries no identity handshake, so the
// bot identity is configured.
func NewBus(nc *NATSClient, dir Directory, identity platform.Identity) *Bus {
	return &Bus{nats: nc, pub: nc, dir: dir, identity: identity}
}

// Run subscribes to bot.events and streams events until ctx is cancelled or
// the NATS connection is closed for good.
func (b *Bus) Run(ctx context.Context, events chan<- chat.Event) error {
	msgs := make(chan *nats.Msg, eventBuffer)
	if err := b.nats.ChanSubscribe(SubjectEvents, msgs); err != nil {
		return err
	}
	defer func() {
		if err := b.nats.Unsubscribe(SubjectEvents); err != nil {
			log.Printf("[nats] %v", err)
		}
	}()

	if !send(ctx, events, chat.Event{ID: uuid.New().String(), Kind: chat.KindConnected}) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.nats.Closed():
			return errors.New("messaging: nats connection closed")
		case msg := <-msgs:
			ev, err := decodeEvent(msg.Data)
			if err != nil {
				log.Printf("[nats] dropping event: %v", err)
				continue
			}
			if !send(ctx, events, ev) {
				return nil
			}
		}
	}
}

// Identity returns the configured bot identity.
func (b *Bus) Identity() platform.Identity {
	return b.identity
}

// Membership reads the conversation directory.
func (b *Bus) Membership(ctx context.Context) (platform.Membership, error) {
	return b.dir.Membership(ctx)
}

// Resolve looks channelID up in the directory.
func (b *Bus) Resolve(ctx context.Context, channelID string) (platform.Conversation, error) {
	c, err := b.dir.Get(ctx, channelID)
	if errors.Is(err, directory.ErrNotFound) {
		return nil, platform.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conversation{pub: b.pub, id: c.ID, name: c.Name}, nil
}

func send(ctx context.Context, events chan<- chat.Event, ev chat.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// decodeEvent parses a bus event payload.
func decodeEvent(data []byte) (chat.Event, error) {
	var m protocol.MessageMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return chat.Event{}, fmt.Errorf("messaging: decode event: %w", err)
	}
	return chat.Event{
		ID:        uuid.New().String(),
		Kind:      chat.KindFromType(m.Type),
		Text:      m.Text,
		ChannelID: m.Channel,
		AuthorID:  m.User,
		Ts:        m.Ts,
	}, nil
}

type conversation struct {
	pub  Publisher
	id   string
	name string
}

func (cv *conversation) ID() string   { return cv.id }
func (cv *conversation) Name() string { return cv.name }

func (cv *conversation) Send(_ context.Context, text string) error {
	data, err := json.Marshal(protocol.ReplyMsg{
		Type:    protocol.TypeReply,
		ID:      uuid.New().String(),
		Channel: cv.id,
		Text:    text,
	})
	if err != nil {
		return &platform.SendError{ChannelID: cv.id, Err: err}
	}
	if err := cv.pub.PublishReply(cv.id, data); err != nil {
		return &platform.SendError{ChannelID: cv.id, Err: err}
	}
	return nil
}
