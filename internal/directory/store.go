// Package directory keeps the registry of conversations the bot can reply to
// in Redis. Bus-based platforms have no session snapshot of their own, so a
// bridge (or an operator) registers channels, groups and direct messages
// here:
//
//	Key:   conversation:<id>   (hash: id, name, kind, is_member, is_open, is_archived)
//	Key:   conversations       (set of ids)
package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/whisper/replybot/internal/platform"
)

const (
	// ConversationPrefix is the Redis key prefix for conversation hashes.
	ConversationPrefix = "conversation:"

	// IndexKey is the set of all registered conversation ids.
	IndexKey = "conversations"

	// Conversation kinds.
	KindChannel = "channel"
	KindGroup   = "group"
	KindIM      = "im"
)

// ErrNotFound is returned by Get for an unregistered id.
var ErrNotFound = errors.New("directory: conversation not found")

// Conversation is one registered reply target.
type Conversation struct {
	ID         string `redis:"id"`
	Name       string `redis:"name"`
	Kind       string `redis:"kind"` // channel | group | im
	IsMember   bool   `redis:"is_member"`
	IsOpen     bool   `redis:"is_open"`
	IsArchived bool   `redis:"is_archived"`
}

// Validate checks that a conversation can be registered.
func (c Conversation) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("directory: conversation id is empty")
	}
	switch c.Kind {
	case KindChannel, KindGroup, KindIM:
		return nil
	default:
		return fmt.Errorf("directory: invalid kind %q", c.Kind)
	}
}

// Store manages the conversation registry in Redis.
type Store struct {
	client *redis.Client
}

// NewStore connects to Redis and verifies the connection.
func NewStore(redisAddr string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("directory: redis connection failed: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing Redis client.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Put registers or replaces a conversation.
func (s *Store) Put(ctx context.Context, c Conversation) error {
	if err := c.Validate(); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, ConversationPrefix+c.ID, toHash(c))
	pipe.SAdd(ctx, IndexKey, c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("directory: put %s: %w", c.ID, err)
	}
	return nil
}

// Get returns the conversation for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := s.client.HGetAll(ctx, ConversationPrefix+id).Scan(&c); err != nil {
		return nil, fmt.Errorf("directory: get %s: %w", id, err)
	}
	if c.ID == "" {
		return nil, ErrNotFound
	}
	return &c, nil
}

// Remove unregisters a conversation.
func (s *Store) Remove(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ConversationPrefix+id)
	pipe.SRem(ctx, IndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("directory: remove %s: %w", id, err)
	}
	return nil
}

// All returns every registered conversation sorted by id. Index entries whose
// hash has vanished are skipped.
func (s *Store) All(ctx context.Context) ([]Conversation, error) {
	ids, err := s.client.SMembers(ctx, IndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("directory: list: %w", err)
	}
	slices.Sort(ids)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, ConversationPrefix+id)
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("directory: list: %w", err)
		}
	}

	out := make([]Conversation, 0, len(ids))
	for _, cmd := range cmds {
		var c Conversation
		if err := cmd.Scan(&c); err != nil {
			return nil, fmt.Errorf("directory: list: %w", err)
		}
		if c.ID != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Membership returns the conversations the bot currently participates in.
func (s *Store) Membership(ctx context.Context) (platform.Membership, error) {
	all, err := s.All(ctx)
	if err != nil {
		return platform.Membership{}, err
	}
	return Membership(all), nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Membership filters conversations into member channels, open unarchived
// groups and open direct messages, preserving input order.
func Membership(convs []Conversation) platform.Membership {
	var m platform.Membership
	for _, c := range convs {
		switch c.Kind {
		case KindChannel:
			if c.IsMember {
				m.Channels = append(m.Channels, c.Name)
			}
		case KindGroup:
			if c.IsOpen && !c.IsArchived {
				m.Groups = append(m.Groups, c.Name)
			}
		case KindIM:
			if c.IsOpen {
				m.DMs = append(m.DMs, c.Name)
			}
		}
	}
	return m
}

func toHash(c Conversation) map[string]interface{} {
	return map[string]interface{}{
		"id":          c.ID,
		"name":        c.Name,
		"kind":        c.Kind,
		"is_member":   c.IsMember,
		"is_open":     c.IsOpen,
		"is_archived": c.IsArchived,
	}
}
