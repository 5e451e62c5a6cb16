package gateway

import (
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/protocol"
)

// frameHandler turns one parsed gateway frame into at most one chat event.
type frameHandler func(msg interface{}) (chat.Event, bool)

// frameDispatcher routes parsed gateway frames to handlers by type. Frames of
// unregistered types become opaque KindOther events.
type frameDispatcher struct {
	handlers map[string]frameHandler
}

func newFrameDispatcher() *frameDispatcher {
	return &frameDispatcher{handlers: make(map[string]frameHandler)}
}

// Register associates a handler with a frame type, replacing any previous one.
func (d *frameDispatcher) Register(msgType string, h frameHandler) {
	d.handlers[msgType] = h
}

// Dispatch parses raw frame bytes and routes them. Malformed frames are
// logged and dropped.
func (d *frameDispatcher) Dispatch(data []byte) (chat.Event, bool) {
	msgType, msg, err := protocol.ParseServerMessage(data)
	if errors.Is(err, protocol.ErrUnknownType) {
		return chat.Event{ID: uuid.New().String(), Kind: chat.KindOther}, true
	}
	if err != nil {
		log.Printf("[gateway] dispatch parse error: %v", err)
		return chat.Event{}, false
	}

	h, ok := d.handlers[msgType]
	if !ok {
		return chat.Event{ID: uuid.New().String(), Kind: chat.KindOther}, true
	}
	return h(msg)
}

// registerHandlers installs the client's frame handlers.
func (c *Client) registerHandlers() {
	c.frames.Register(protocol.TypeHello, func(msg interface{}) (chat.Event, bool) {
		hello := msg.(protocol.HelloMsg)
		c.mu.Lock()
		c.identity = platform.Identity{
			SelfID:   hello.Self.ID,
			SelfName: hello.Self.Name,
			TeamName: hello.Team.Name,
		}
		c.mu.Unlock()
		c.registry.Reset(hello.Conversations)
		return chat.Event{ID: uuid.New().String(), Kind: chat.KindConnected}, true
	})

	c.frames.Register(protocol.TypeMessage, func(msg interface{}) (chat.Event, bool) {
		m := msg.(protocol.MessageMsg)
		return chat.Event{
			ID:        uuid.New().String(),
			Kind:      chat.KindMessage,
			Text:      m.Text,
			ChannelID: m.Channel,
			AuthorID:  m.User,
			Ts:        m.Ts,
		}, true
	})

	c.frames.Register(protocol.TypeConversationUpdate, func(msg interface{}) (chat.Event, bool) {
		upd := msg.(protocol.ConversationUpdateMsg)
		if upd.Removed {
			c.registry.Remove(upd.Conversation.ID)
		} else {
			c.registry.Put(upd.Conversation)
		}
		return chat.Event{ID: uuid.New().String(), Kind: chat.KindOther}, true
	})

	c.frames.Register(protocol.TypeError, func(msg interface{}) (chat.Event, bool) {
		e := msg.(protocol.ErrorMsg)
		log.Printf("[gateway] error frame reply_to=%s code=%s: %s", e.ReplyTo, e.Code, e.Message)
		return chat.Event{}, false
	})

	c.frames.Register(protocol.TypePong, func(interface{}) (chat.Event, bool) {
		return chat.Event{}, false
	})
}
