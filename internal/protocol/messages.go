// Package protocol defines the JSON frames exchanged between the bot and a
// chat event gateway over WebSocket. Every frame is an object with a "type"
// discriminator; the remaining fields depend on the type.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Gateway -> bot message types.
const (
	TypeHello              = "hello"
	TypeMessage            = "message"
	TypeConversationUpdate = "conversation_update"
	TypeError              = "error"
	TypePong               = "pong"
)

// Bot -> gateway message types.
const (
	TypeReply = "message"
	TypePing  = "ping"
)

// Conversation kinds carried in ConversationInfo.Kind.
const (
	KindChannel = "channel"
	KindGroup   = "group"
	KindIM      = "im"
)

// ErrUnknownType is wrapped by ParseServerMessage for types the bot does not
// interpret. Callers may still treat such frames as opaque events.
var ErrUnknownType = errors.New("protocol: unknown message type")

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw bytes and extracts only the "type"
// field so the payload can be decoded later into the concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Gateway -> bot message structs
// ---------------------------------------------------------------------------

// User identifies a platform user.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team identifies the workspace.
type Team struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ConversationInfo describes one channel, group or direct message.
type ConversationInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"` // channel | group | im
	IsMember   bool   `json:"is_member,omitempty"`
	IsOpen     bool   `json:"is_open,omitempty"`
	IsArchived bool   `json:"is_archived,omitempty"`
}

// HelloMsg is the first frame of every connection. It carries the bot's
// identity and the conversations visible to it.
type HelloMsg struct {
	Type          string             `json:"type"`
	Self          User               `json:"self"`
	Team          Team               `json:"team"`
	Conversations []ConversationInfo `json:"conversations"`
}

// MessageMsg is a chat message observed by the gateway.
type MessageMsg struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Channel string `json:"channel"`
	User    string `json:"user"`
	Ts      int64  `json:"ts,omitempty"`
}

// ConversationUpdateMsg adds, changes or removes one conversation.
type ConversationUpdateMsg struct {
	Type         string           `json:"type"`
	Conversation ConversationInfo `json:"conversation"`
	Removed      bool             `json:"removed,omitempty"`
}

// ErrorMsg reports a gateway-side failure, usually for a reply frame.
type ErrorMsg struct {
	Type    string `json:"type"`
	ReplyTo string `json:"reply_to,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg answers a bot ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Bot -> gateway message structs
// ---------------------------------------------------------------------------

// ReplyMsg posts text to a conversation.
type ReplyMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// PingMsg is a bot-initiated keepalive.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseServerMessage parses a gateway frame into a typed message. For types
// the bot does not interpret it returns the type and an error wrapping
// ErrUnknownType.
func ParseServerMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeHello:
		var m HelloMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeMessage:
		var m MessageMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeConversationUpdate:
		var m ConversationUpdateMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeError:
		var m ErrorMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypePong:
		var m PongMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewClientMessage creates a JSON-encoded frame for a bot message. The
// msgType is injected into the payload under the "type" key.
func NewClientMessage(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal client message: %w", err)
	}
	return out, nil
}
