package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisper/replybot/internal/chat"
	"github.com/whisper/replybot/internal/directory"
	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/protocol"
)

type memDirectory map[string]directory.Conversation

func (d memDirectory) Get(_ context.Context, id string) (*directory.Conversation, error) {
	c, ok := d[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return &c, nil
}

func (d memDirectory) Membership(context.Context) (platform.Membership, error) {
	var all []directory.Conversation
	for _, c := range d {
		all = append(all, c)
	}
	return directory.Membership(all), nil
}

type published struct {
	subjectSuffix string
	data          []byte
}

type recordingPublisher struct {
	out []published
	err error
}

func (p *recordingPublisher) PublishReply(channelID string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.out = append(p.out, published{channelID, data})
	return nil
}

func newTestBus(pub Publisher) *Bus {
	dir := memDirectory{"C1": {ID: "C1", Name: "general", Kind: directory.KindChannel, IsMember: true}}
	return &Bus{pub: pub, dir: dir, identity: platform.Identity{SelfID: "BOT"}}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  chat.Kind
		text  string
	}{
		{"message", `{"type":"message","text":"<@BOT> hi","channel":"C1","user":"U1"}`, chat.KindMessage, "<@BOT> hi"},
		{"other", `{"type":"not-message"}`, chat.KindOther, ""},
		{"no text", `{"type":"message","channel":"C1"}`, chat.KindMessage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decodeEvent([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.text, ev.Text)
			assert.NotEmpty(t, ev.ID)
		})
	}

	_, err := decodeEvent([]byte(`nope`))
	assert.Error(t, err)
}

func TestBus_ResolveAndSend(t *testing.T) {
	pub := &recordingPublisher{}
	bus := newTestBus(pub)
	ctx := context.Background()

	conv, err := bus.Resolve(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "general", conv.Name())
	require.NoError(t, conv.Send(ctx, "Hi how are you?"))

	require.Len(t, pub.out, 1)
	assert.Equal(t, "C1", pub.out[0].subjectSuffix)

	var reply protocol.ReplyMsg
	require.NoError(t, json.Unmarshal(pub.out[0].data, &reply))
	assert.Equal(t, "message", reply.Type)
	assert.Equal(t, "Hi how are you?", reply.Text)
	assert.NotEmpty(t, reply.ID)

	_, err = bus.Resolve(ctx, "C404")
	assert.ErrorIs(t, err, platform.ErrConversationNotFound)
}

func TestBus_SendError(t *testing.T) {
	bus := newTestBus(&recordingPublisher{err: errors.New("nats: connection closed")})

	conv, err := bus.Resolve(context.Background(), "C1")
	require.NoError(t, err)

	err = conv.Send(context.Background(), "hi")
	var sendErr *platform.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "C1", sendErr.ChannelID)
}

func TestBus_IdentityAndMembership(t *testing.T) {
	bus := newTestBus(&recordingPublisher{})
	assert.Equal(t, "BOT", bus.Identity().SelfID)

	m, err := bus.Membership(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, m.Channels)
}

func TestDefaultNATSConfig(t *testing.T) {
	cfg := DefaultNATSConfig()
	assert.Equal(t, "nats://localhost:4222", cfg.URL)
	assert.Equal(t, -1, cfg.MaxReconnects)
}
