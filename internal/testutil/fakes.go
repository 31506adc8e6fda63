package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/craftlane/chatbridge/core"
)

// FakeStore is an in-memory core.ConversationStore with injectable failures.
type FakeStore struct {
	mu       sync.Mutex
	messages map[string][]core.Message

	// RecentErr fails RecentMessages when set.
	RecentErr error
	// SaveErr fails SaveMessage when set.
	SaveErr error
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{messages: make(map[string][]core.Message)}
}

// Seed installs a conversation's history directly.
func (s *FakeStore) Seed(conversationID string, msgs []core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[conversationID] = append([]core.Message(nil), msgs...)
}

// RecentMessages implements core.ConversationStore.
func (s *FakeStore) RecentMessages(_ context.Context, conversationID string, limit int) ([]core.Message, error) {
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]core.Message(nil), msgs...), nil
}

// SaveMessage implements core.ConversationStore.
func (s *FakeStore) SaveMessage(_ context.Context, conversationID, content string, role core.Role, agentType core.AgentType, metadata map[string]any) (core.Message, error) {
	if s.SaveErr != nil {
		return core.Message{}, s.SaveErr
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
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return msg, nil
}

// Saved returns the stored history for assertions.
func (s *FakeStore) Saved(conversationID string) []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Message(nil), s.messages[conversationID]...)
}

// FakeProfiles is a core.ProfileProvider returning a fixed string per user.
type FakeProfiles struct {
	// Text is returned for every user. Defaults to empty (no profile).
	Text string
	// Err fails Profile when set.
	Err error
}

// Profile implements core.ProfileProvider.
func (p *FakeProfiles) Profile(_ context.Context, _ string) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}
