package gateway

import (
	"slices"
	"sync"

	"github.com/whisper/replybot/internal/platform"
	"github.com/whisper/replybot/internal/protocol"
)

// Registry is a thread-safe map of the conversations announced by the
// gateway, keyed by conversation id.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]protocol.ConversationInfo
}

// NewRegistry creates an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]protocol.ConversationInfo)}
}

// Reset replaces the registry contents, as on a fresh hello frame.
func (r *Registry) Reset(convs []protocol.ConversationInfo) {
	byID := make(map[string]protocol.ConversationInfo, len(convs))
	for _, c := range convs {
		if c.ID != "" {
			byID[c.ID] = c
		}
	}
	r.mu.Lock()
	r.byID = byID
	r.mu.Unlock()
}

// Put adds or replaces one conversation.
func (r *Registry) Put(c protocol.ConversationInfo) {
	if c.ID == "" {
		return
	}
	r.mu.Lock()
	r.byID[c.ID] = c
	r.mu.Unlock()
}

// Remove drops a conversation. It reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.byID[id]
	delete(r.byID, id)
	r.mu.Unlock()
	return ok
}

// Get returns the conversation for id.
func (r *Registry) Get(id string) (protocol.ConversationInfo, bool) {
	r.mu.RLock()
	c, ok := r.byID[id]
	r.mu.RUnlock()
	return c, ok
}

// Count returns the number of known conversations.
func (r *Registry) Count() int {
	r.mu.RLock()
	n := len(r.byID)
	r.mu.RUnlock()
	return n
}

// Membership returns the names of member channels, open unarchived groups and
// open direct messages, each sorted.
func (r *Registry) Membership() platform.Membership {
	var m platform.Membership

	r.mu.RLock()
	for _, c := range r.byID {
		switch c.Kind {
		case protocol.KindChannel:
			if c.IsMember {
				m.Channels = append(m.Channels, c.Name)
			}
		case protocol.KindGroup:
			if c.IsOpen && !c.IsArchived {
				m.Groups = append(m.Groups, c.Name)
			}
		case protocol.KindIM:
			if c.IsOpen {
				m.DMs = append(m.DMs, c.Name)
			}
		}
	}
	r.mu.RUnlock()

	slices.Sort(m.Channels)
	slices.Sort(m.Groups)
	slices.Sort(m.DMs)
	return m
}
