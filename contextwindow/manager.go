package contextwindow

import (
	"context"
	"fmt"
	"strings"

	"github.com/craftlane/chatbridge/core"
	"github.com/craftlane/chatbridge/logging"
	"github.com/craftlane/chatbridge/tokencount"
)

// Options configures a Manager using the functional options pattern.
type Options struct {
	// Config contains sizing and summarization parameters.
	Config Config

	// Counter estimates token usage. Defaults to the character heuristic.
	Counter tokencount.Counter

	// Profiles supplies the user profile preamble. Leave nil to omit
	// profiles from built contexts.
	Profiles core.ProfileProvider

	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// WithConfig overrides the sizing parameters.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithCounter sets the token counter.
func WithCounter(c tokencount.Counter) func(o *Options) {
	return func(o *Options) { o.Counter = c }
}

// WithProfiles sets the user profile provider.
func WithProfiles(p core.ProfileProvider) func(o *Options) {
	return func(o *Options) { o.Profiles = p }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Manager builds LLM context strings from conversation history and persists
// turns through the underlying store.
type Manager struct {
	store      core.ConversationStore
	counter    tokencount.Counter
	profiles   core.ProfileProvider
	logger     logging.Logger
	config     Config
	tokenLimit int
}

// New creates a Manager over the given conversation store.
func New(store core.ConversationStore, optFns ...func(o *Options)) *Manager {
	opts := Options{Config: DefaultConfig, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Counter == nil {
		opts.Counter = tokencount.NewHeuristicCounter()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	cfg := opts.Config.normalized()

	m := &Manager{
		store:      store,
		counter:    opts.Counter,
		profiles:   opts.Profiles,
		logger:     opts.Logger,
		config:     cfg,
		tokenLimit: cfg.tokenLimit(),
	}
	m.logger.Info("context manager initialized",
		"model", cfg.ModelID, "token_limit", m.tokenLimit)
	return m
}

// TokenLimit returns the effective context window size for the configured
// model.
func (m *Manager) TokenLimit() int {
	return m.tokenLimit
}

// BuildContext assembles the context string for an invocation: the user
// profile preamble (when a provider is configured), then the formatted
// conversation history, summarized if it would overflow the token budget.
//
// Building never fails the request. Any error degrades to an empty context
// so the conversation continues without history.
func (m *Manager) BuildContext(ctx context.Context, req core.ChatRequest) string {
	m.logger.Debug("building context", "conversation_id", req.ConversationID)

	history := req.History
	if len(history) == 0 && req.ConversationID != "" {
		history = m.loadHistory(ctx, req.ConversationID)
	}

	if m.exceedsTokenLimit(history) {
		m.logger.Info("context exceeds token limit, summarizing older turns",
			"conversation_id", req.ConversationID, "turns", len(history))
		history = m.Summarize(history)
	}

	var parts []string

	if m.profiles != nil {
		profile, err := m.profiles.Profile(ctx, req.UserID)
		if err != nil {
			m.logger.Error("loading user profile failed",
				"user_id", req.UserID, "error", err)
		} else if profile != "" {
			parts = append(parts, profile)
		}
	}

	if len(history) > 0 {
		parts = append(parts, "Previous conversation:")
		for _, msg := range history {
			parts = append(parts, fmt.Sprintf("%s: %s", msg.Role.Display(), msg.Content))
		}
	}

	built := strings.Join(parts, "\n")
	m.logger.Debug("context built",
		"conversation_id", req.ConversationID, "turns", len(history), "chars", len(built))
	return built
}

// SaveMessage persists one turn through the conversation store.
func (m *Manager) SaveMessage(ctx context.Context, conversationID, content string, role core.Role, agentType core.AgentType, metadata map[string]any) (core.Message, error) {
	msg, err := m.store.SaveMessage(ctx, conversationID, content, role, agentType, metadata)
	if err != nil {
		m.logger.Error("saving message failed",
			"conversation_id", conversationID, "role", role, "error", err)
		return core.Message{}, fmt.Errorf("save %s message: %w", role, err)
	}
	m.logger.Debug("message saved",
		"conversation_id", conversationID, "role", role, "message_id", msg.ID)
	return msg, nil
}

// FormatMessages renders turns as role-prefixed lines without a profile or
// history header.
func (m *Manager) FormatMessages(messages []core.Message) string {
	if len(messages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, fmt.Sprintf("%s: %s", msg.Role.Display(), msg.Content))
	}
	return strings.Join(parts, "\n")
}

// EstimateTokens estimates the token cost of text using the configured
// counter.
func (m *Manager) EstimateTokens(text string) int {
	return m.counter.Count(text)
}

// loadHistory fetches recent turns in chronological order, returning nil on
// store failure so context building can degrade.
func (m *Manager) loadHistory(ctx context.Context, conversationID string) []core.Message {
	// Load past the preserve horizon so the summarizer has older turns
	// to compress.
	limit := m.config.PreserveRecent * 2
	messages, err := m.store.RecentMessages(ctx, conversationID, limit)
	if err != nil {
		m.logger.Error("loading conversation history failed",
			"conversation_id", conversationID, "error", err)
		return nil
	}
	m.logger.Debug("loaded recent history",
		"conversation_id", conversationID, "turns", len(messages))
	return messages
}

// exceedsTokenLimit estimates the token cost of the raw history, inflated by
// the buffer factor, against the model limit.
func (m *Manager) exceedsTokenLimit(messages []core.Message) bool {
	if len(messages) == 0 {
		return false
	}

	var sb strings.Builder
	for _, msg := range messages {
		sb.WriteString(msg.Content)
	}
	estimated := int(float64(m.counter.Count(sb.String())) * m.config.BufferFactor)

	if estimated > m.tokenLimit {
		m.logger.Info("token estimate over limit",
			"estimated", estimated, "limit", m.tokenLimit)
		return true
	}
	return false
}
