package core

import "context"

// ConversationStore persists conversation turns. Implementations must be safe
// for concurrent use across different conversation ids. Reads are side-effect
// free; SaveMessage is append-only.
type ConversationStore interface {
	// RecentMessages returns up to limit most recent turns of the
	// conversation in chronological order.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)

	// SaveMessage appends a turn to the conversation and returns the stored
	// message (with id and timestamp populated).
	SaveMessage(ctx context.Context, conversationID, content string, role Role, agentType AgentType, metadata map[string]any) (Message, error)
}

// ProfileProvider supplies an optional user profile preamble included at the
// top of the built context. Returning an empty string omits the preamble.
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (string, error)
}
