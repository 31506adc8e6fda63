package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/craftlane/chatbridge/core"
)

// InMemoryStore is a thread-safe in-memory core.ConversationStore suitable
// for development and testing. Conversations vanish on process exit.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]core.Message
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string][]core.Message)}
}

// RecentMessages returns up to limit most recent turns in chronological
// order. The returned slice is a copy; mutating it does not affect the store.
func (s *InMemoryStore) RecentMessages(_ context.Context, conversationID string, limit int) ([]core.Message, error) {
	if conversationID == "" {
		return nil, errors.New("conversation id must not be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.conversations[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]core.Message(nil), msgs...), nil
}

// SaveMessage appends one turn to the conversation and returns the stored
// message with its generated id and timestamp.
func (s *InMemoryStore) SaveMessage(_ context.Context, conversationID, content string, role core.Role, agentType core.AgentType, metadata map[string]any) (core.Message, error) {
	if conversationID == "" {
		return core.Message{}, errors.New("conversation id must not be empty")
	}
	if content == "" {
		return core.Message{}, errors.New("message content must not be empty")
	}

	msg := core.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		AgentType: agentType,
		Metadata:  metadata,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversationID] = append(s.conversations[conversationID], msg)
	return msg, nil
}

// Len reports the number of turns stored for a conversation.
func (s *InMemoryStore) Len(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[conversationID])
}
