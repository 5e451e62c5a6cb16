// Package gateway connects the bot to a chat event gateway over WebSocket.
// The gateway announces the bot's identity and visible conversations in a
// hello frame, then streams message frames; replies go back as message
// frames on the same socket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/google/uuid"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/protocol"
)

var errNotConnected = errors.New("gateway: not connected")

// Config holds gateway connection settings.
type Config struct {
	URL         string        // ws://host:port/path
	DialTimeout time.Duration // timeout for the WebSocket handshake
	Heartbeat   HeartbeatConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:         "ws://localhost:8080/bot",
		DialTimeout: 10 * time.Second,
		Heartbeat:   DefaultHeartbeatConfig(),
	}
}

// Client is a platform.Client backed by a gateway WebSocket.
type Client struct {
	config   Config
	registry *Registry
	frames   *frameDispatcher
	sock     atomic.Pointer[socket]

	mu       sync.RWMutex
	identity platform.Identity
}

// New creates a gateway client. Nothing connects until Run.
func New(config Config) *Client {
	c := &Client{
		config:   config,
		registry: NewRegistry(),
		frames:   newFrameDispatcher(),
	}
	c.registerHandlers()
	return c
}

// Run dials the gateway and streams events until ctx is cancelled or the
// socket fails. A lost connection is returned as an error; reconnecting is
// left to whoever owns the dispatcher.
func (c *Client) Run(ctx context.Context, events chan<- chat.Event) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	conn, br, _, err := ws.Dial(dialCtx, c.config.URL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("gateway: dial %s: %w", c.config.URL, err)
	}

	s := newSocket(conn, br)
	c.sock.Store(s)
	defer func() {
		c.sock.CompareAndSwap(s, nil)
		s.close()
	}()
	log.Printf("[gateway] connected to %s", c.config.URL)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go c.heartbeat(hbCtx, s)

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			data, op, err := s.read()
			if err != nil {
				readErr <- err
				return
			}
			s.touch()
			if op != ws.OpText {
				continue
			}
			select {
			case frames <- data:
			case <-hbCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("gateway: read: %w", err)
		case data := <-frames:
			ev, ok := c.frames.Dispatch(data)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Identity returns the identity announced in the latest hello frame.
func (c *Client) Identity() platform.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Membership snapshots the registry.
func (c *Client) Membership(context.Context) (platform.Membership, error) {
	return c.registry.Membership(), nil
}

// Resolve returns the registered conversation for channelID.
func (c *Client) Resolve(_ context.Context, channelID string) (platform.Conversation, error) {
	info, ok := c.registry.Get(channelID)
	if !ok {
		return nil, platform.ErrConversationNotFound
	}
	return &conversation{client: c, info: info}, nil
}

// send writes a reply frame on the current socket.
func (c *Client) send(channelID, text string) error {
	s := c.sock.Load()
	if s == nil {
		return errNotConnected
	}
	data, err := protocol.NewClientMessage(protocol.TypeReply, protocol.ReplyMsg{
		ID:      uuid.New().String(),
		Channel: channelID,
		Text:    text,
	})
	if err != nil {
		return err
	}
	return s.write(data)
}

type conversation struct {
	client *Client
	info   protocol.ConversationInfo
}

func (cv *conversation) ID() string   { return cv.info.ID }
func (cv *conversation) Name() string { return cv.info.Name }

func (cv *conversation) Send(_ context.Context, text string) error {
	if err := cv.client.send(cv.info.ID, text); err != nil {
		return &platform.SendError{ChannelID: cv.info.ID, Err: err}
	}
	return nil
}
