package directory

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreWithClient(t *testing.T) {
	// Verify store can be created without Redis (nil client for unit test).
	s := NewStoreWithClient(nil)
	require.NotNil(t, s)
	assert.Nil(t, s.client)
}

func TestConversation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conv    Conversation
		wantErr bool
	}{
		{"channel", Conversation{ID: "C1", Kind: KindChannel}, false},
		{"group", Conversation{ID: "G1", Kind: KindGroup}, false},
		{"im", Conversation{ID: "D1", Kind: KindIM}, false},
		{"no id", Conversation{Kind: KindChannel}, true},
		{"bad kind", Conversation{ID: "X1", Kind: "mpim"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conv.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMembership(t *testing.T) {
	m := Membership([]Conversation{
		{ID: "C1", Name: "general", Kind: KindChannel, IsMember: true},
		{ID: "C2", Name: "lurk", Kind: KindChannel},
		{ID: "G1", Name: "secret", Kind: KindGroup, IsOpen: true},
		{ID: "G2", Name: "old", Kind: KindGroup, IsOpen: true, IsArchived: true},
		{ID: "D1", Name: "alice", Kind: KindIM, IsOpen: true},
		{ID: "D2", Name: "bob", Kind: KindIM},
	})

	assert.Equal(t, []string{"general"}, m.Channels)
	assert.Equal(t, []string{"secret"}, m.Groups)
	assert.Equal(t, []string{"alice"}, m.DMs)
}

func TestToHash(t *testing.T) {
	h := toHash(Conversation{ID: "C1", Name: "general", Kind: KindChannel, IsMember: true})
	assert.Equal(t, "C1", h["id"])
	assert.Equal(t, true, h["is_member"])
	assert.Equal(t, false, h["is_archived"])
}

// TestStore_Redis runs against a live Redis when REDIS_ADDR is set.
func TestStore_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	require.NoError(t, client.FlushDB(ctx).Err())
	s := NewStoreWithClient(client)
	defer s.Close()

	require.NoError(t, s.Put(ctx, Conversation{ID: "C1", Name: "general", Kind: KindChannel, IsMember: true}))
	require.NoError(t, s.Put(ctx, Conversation{ID: "D1", Name: "alice", Kind: KindIM, IsOpen: true}))

	c, err := s.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "general", c.Name)
	assert.True(t, c.IsMember)

	_, err = s.Get(ctx, "C404")
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := s.Membership(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, m.Channels)
	assert.Equal(t, []string{"alice"}, m.DMs)

	require.NoError(t, s.Remove(ctx, "C1"))
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
