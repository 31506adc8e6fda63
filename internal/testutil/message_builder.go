package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/craftlane/chatbridge/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().User("how many invoices?").At(ts).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	id        string
	role      core.Role
	content   string
	timestamp time.Time
	agentType core.AgentType
	metadata  map[string]any
}

// NewMessageBuilder creates a builder defaulting to an empty user message.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{role: core.RoleUser, timestamp: time.Now().UTC()}
}

// ID overrides the auto-generated message ID (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// User sets user role and content (chainable).
func (b *MessageBuilder) User(content string) *MessageBuilder {
	b.role = core.RoleUser
	b.content = content
	return b
}

// Assistant sets assistant role and content (chainable).
func (b *MessageBuilder) Assistant(content string) *MessageBuilder {
	b.role = core.RoleAssistant
	b.content = content
	return b
}

// At sets the timestamp (chainable).
func (b *MessageBuilder) At(ts time.Time) *MessageBuilder { b.timestamp = ts; return b }

// Agent sets the producing agent type (chainable).
func (b *MessageBuilder) Agent(t core.AgentType) *MessageBuilder { b.agentType = t; return b }

// Meta sets one metadata key (chainable).
func (b *MessageBuilder) Meta(key string, value any) *MessageBuilder {
	if b.metadata == nil {
		b.metadata = make(map[string]any)
	}
	b.metadata[key] = value
	return b
}

// ToolCalls records tool call metadata under the standard key (chainable).
func (b *MessageBuilder) ToolCalls(names ...string) *MessageBuilder {
	calls := make([]map[string]any, 0, len(names))
	for _, name := range names {
		calls = append(calls, map[string]any{"name": name})
	}
	return b.Meta(core.MetaToolCalls, calls)
}

// Build assembles the message.
func (b *MessageBuilder) Build() core.Message {
	id := b.id
	if id == "" {
		id = uuid.NewString()
	}
	return core.Message{
		ID:        id,
		Role:      b.role,
		Content:   b.content,
		Timestamp: b.timestamp,
		AgentType: b.agentType,
		Metadata:  b.metadata,
	}
}

// Conversation generates n alternating user/assistant turns with ascending
// timestamps, starting with a user turn.
func Conversation(n int) []core.Message {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msgs := make([]core.Message, 0, n)
	for i := 0; i < n; i++ {
		b := NewMessageBuilder().At(base.Add(time.Duration(i) * time.Minute))
		if i%2 == 0 {
			b.User(fmt.Sprintf("user turn %d", i))
		} else {
			b.Assistant(fmt.Sprintf("assistant turn %d", i))
		}
		msgs = append(msgs, b.Build())
	}
	return msgs
}
