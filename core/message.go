package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by an agent.
	RoleAssistant Role = "assistant"
)

// Display returns the label used when rendering a turn into model context
// ("User" / "Assistant").
func (r Role) Display() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// AgentType tags assistant output with the agent that produced it.
type AgentType string

const (
	// AgentTypeSupervisor is the default routing agent.
	AgentTypeSupervisor AgentType = "supervisor"
	// AgentTypeInvoices handles invoice related requests.
	AgentTypeInvoices AgentType = "invoices"
	// AgentTypeAppointments handles scheduling related requests.
	AgentTypeAppointments AgentType = "appointments"
	// AgentTypeProjects handles project related requests.
	AgentTypeProjects AgentType = "projects"
)

// SummaryMessageID is the reserved id carried by synthetic summary turns.
const SummaryMessageID = "summary"

// Metadata keys understood by the context manager.
const (
	// MetaIsSummary flags a synthetic turn that replaces compressed history.
	MetaIsSummary = "is_summary"
	// MetaToolCalls carries the list of tool invocations recorded on an
	// assistant turn. Each entry is a map with at least a "name" key.
	MetaToolCalls = "toolCalls"
)

// Message is one immutable conversation turn. It is created either by the
// caller (user turn) or by the bridge after an invocation completes
// (assistant turn) and is never mutated afterwards.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	AgentType AgentType      `json:"agent_type,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewMessage creates a turn with a fresh id and UTC timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// IsSummary reports whether this turn is a synthetic summary produced by the
// context manager.
func (m Message) IsSummary() bool {
	if m.Metadata == nil {
		return false
	}
	v, ok := m.Metadata[MetaIsSummary].(bool)
	return ok && v
}

// MaxMessageLength bounds the user message accepted by ChatRequest.Validate.
const MaxMessageLength = 10000

// ChatRequest is the input to one streamed chat invocation. History is
// optional; when empty the context manager loads recent turns from the
// conversation store instead.
type ChatRequest struct {
	Message        string    `json:"message"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	History        []Message `json:"history,omitempty"`
}

// Validate checks the request against the endpoint contract.
func (r ChatRequest) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("message must not be empty")
	}
	if len(r.Message) > MaxMessageLength {
		return fmt.Errorf("message exceeds maximum length of %d characters", MaxMessageLength)
	}
	if r.ConversationID == "" {
		return fmt.Errorf("conversation_id is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}
