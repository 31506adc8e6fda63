// Package chatbridge streams conversational agent responses over a managed
// context window.
//
// The ChatBridge facade ties the pieces together: it persists the incoming
// user turn, builds a budgeted context from conversation history, runs the
// agent through the streaming bridge, and finishes every stream with exactly
// one terminal chunk. Construction follows the functional options pattern;
// all collaborators default to in-memory implementations so a working bridge
// needs nothing but an agent runner:
//
//	cb := chatbridge.New()
//	chunks, err := cb.StreamChat(ctx, runner, req)
package chatbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/bridge"
	"github.com/craftlane/chatbridge/contextwindow"
	"github.com/craftlane/chatbridge/core"
	"github.com/craftlane/chatbridge/logging"
	"github.com/craftlane/chatbridge/retry"
	"github.com/craftlane/chatbridge/store"
	"github.com/craftlane/chatbridge/tokencount"
)

// Save retry bounds. Message appends are idempotent-safe to retry, so a
// brief store hiccup should not lose a turn.
const (
	saveRetryAttempts  = 3
	saveRetryBaseDelay = 100 * time.Millisecond
	saveRetryMaxDelay  = time.Second
)

// Options configures a ChatBridge using the functional options pattern.
type Options struct {
	// BridgeConfig tunes stream driving. Defaults to bridge.DefaultConfig.
	BridgeConfig bridge.Config

	// ContextConfig tunes context sizing. Defaults to
	// contextwindow.DefaultConfig.
	ContextConfig contextwindow.Config

	// Store persists conversation turns. Defaults to an in-memory store.
	Store core.ConversationStore

	// Profiles supplies the user profile preamble. Nil omits profiles.
	Profiles core.ProfileProvider

	// Counter estimates token usage. Defaults to the character heuristic.
	Counter tokencount.Counter

	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// WithBridgeConfig overrides the stream driving parameters.
func WithBridgeConfig(cfg bridge.Config) func(o *Options) {
	return func(o *Options) { o.BridgeConfig = cfg }
}

// WithContextConfig overrides the context sizing parameters.
func WithContextConfig(cfg contextwindow.Config) func(o *Options) {
	return func(o *Options) { o.ContextConfig = cfg }
}

// WithStore sets the conversation store.
func WithStore(s core.ConversationStore) func(o *Options) {
	return func(o *Options) { o.Store = s }
}

// WithProfiles sets the user profile provider.
func WithProfiles(p core.ProfileProvider) func(o *Options) {
	return func(o *Options) { o.Profiles = p }
}

// WithCounter sets the token counter.
func WithCounter(c tokencount.Counter) func(o *Options) {
	return func(o *Options) { o.Counter = c }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// ChatBridge is the entry point for streaming chat requests. It is safe for
// concurrent use.
type ChatBridge struct {
	bridge     *bridge.Bridge
	contextMgr *contextwindow.Manager
	logger     logging.Logger
	bufSize    int
}

// New creates a ChatBridge with the supplied options.
func New(optFns ...func(o *Options)) *ChatBridge {
	opts := Options{
		BridgeConfig:  bridge.DefaultConfig,
		ContextConfig: contextwindow.DefaultConfig,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = store.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	b := bridge.New(
		bridge.WithConfig(opts.BridgeConfig),
		bridge.WithLogger(opts.Logger),
	)
	mgrOpts := []func(o *contextwindow.Options){
		contextwindow.WithConfig(opts.ContextConfig),
		contextwindow.WithLogger(opts.Logger),
	}
	if opts.Profiles != nil {
		mgrOpts = append(mgrOpts, contextwindow.WithProfiles(opts.Profiles))
	}
	if opts.Counter != nil {
		mgrOpts = append(mgrOpts, contextwindow.WithCounter(opts.Counter))
	}

	bufSize := opts.BridgeConfig.EventBufferSize
	if bufSize <= 0 {
		bufSize = bridge.DefaultConfig.EventBufferSize
	}

	return &ChatBridge{
		bridge:     b,
		contextMgr: contextwindow.New(opts.Store, mgrOpts...),
		logger:     opts.Logger,
		bufSize:    bufSize,
	}
}

// Context exposes the context window manager for direct history access.
func (cb *ChatBridge) Context() *contextwindow.Manager {
	return cb.contextMgr
}

// StreamChat handles one chat request end to end and returns the chunk
// stream. The channel carries token and tool_start chunks in production
// order and is closed after exactly one terminal chunk: complete on success,
// error on failure. Cancelling ctx abandons the stream with no terminal
// chunk; the in-flight agent call finishes in the background.
//
// The incoming user turn is persisted before invocation and the assistant's
// full response after it. Persistence failures are logged and never fail the
// stream.
func (cb *ChatBridge) StreamChat(ctx context.Context, runner agent.Runner, req core.ChatRequest) (<-chan core.StreamChunk, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner must not be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chat request: %w", err)
	}

	out := make(chan core.StreamChunk, cb.bufSize)
	go cb.run(ctx, runner, req, out)
	return out, nil
}

func (cb *ChatBridge) run(ctx context.Context, runner agent.Runner, req core.ChatRequest, out chan<- core.StreamChunk) {
	defer close(out)

	info := runner.Info()
	cb.logger.Info("processing chat request",
		"conversation_id", req.ConversationID, "user_id", req.UserID, "agent", info.Name)

	emit := func(c core.StreamChunk) bool {
		select {
		case out <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Persist the user turn first so a later failure still leaves the
	// question on record.
	if err := cb.saveMessage(ctx, req.ConversationID, req.Message, core.RoleUser, "", nil); err != nil {
		cb.logger.Error("saving user message failed",
			"conversation_id", req.ConversationID, "error", err)
	}

	prompt := cb.buildPrompt(ctx, req)

	chunks, errs, err := cb.bridge.Stream(ctx, runner, prompt)
	if err != nil {
		cb.logger.Error("starting stream failed",
			"conversation_id", req.ConversationID, "error", err)
		emit(core.ErrorChunk(TranslateError(err)))
		return
	}

	var response strings.Builder
	var toolCalls []map[string]any
	for c := range chunks {
		switch c.Type {
		case core.ChunkToken:
			response.WriteString(c.Content)
		case core.ChunkToolStart:
			toolCalls = append(toolCalls, map[string]any{"name": c.ToolName})
		}
		if !emit(c) {
			cb.logger.Info("client disconnected, stopping stream",
				"conversation_id", req.ConversationID)
			return
		}
	}

	if streamErr := <-errs; streamErr != nil {
		emit(core.ErrorChunk(TranslateError(streamErr)))
		return
	}
	if ctx.Err() != nil {
		cb.logger.Info("client disconnected, stopping stream",
			"conversation_id", req.ConversationID)
		return
	}

	if response.Len() > 0 {
		var metadata map[string]any
		if len(toolCalls) > 0 {
			metadata = map[string]any{core.MetaToolCalls: toolCalls}
		}
		if err := cb.saveMessage(ctx, req.ConversationID, response.String(), core.RoleAssistant, info.AgentType, metadata); err != nil {
			cb.logger.Error("saving assistant message failed",
				"conversation_id", req.ConversationID, "error", err)
		}
	}

	emit(core.CompleteChunk(info.AgentType))
	cb.logger.Info("completed streaming response",
		"conversation_id", req.ConversationID, "response_chars", response.Len())
}

// saveMessage persists one turn with bounded retry.
func (cb *ChatBridge) saveMessage(ctx context.Context, conversationID, content string, role core.Role, agentType core.AgentType, metadata map[string]any) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		_, err := cb.contextMgr.SaveMessage(ctx, conversationID, content, role, agentType, metadata)
		return err
	},
		retry.WithMaxAttempts(saveRetryAttempts),
		retry.WithBackoff(saveRetryBaseDelay, saveRetryMaxDelay),
		retry.WithLogger(cb.logger),
	)
}

// buildPrompt composes the invocation prompt: a system line carrying the
// user id for tool calls, the built context, then the current message.
func (cb *ChatBridge) buildPrompt(ctx context.Context, req core.ChatRequest) string {
	built := cb.contextMgr.BuildContext(ctx, req)
	contextWithUser := fmt.Sprintf("[SYSTEM: User ID is %s]", req.UserID)
	if built != "" {
		contextWithUser += "\n\n" + built
	}
	return fmt.Sprintf("%s\n\nUser: %s", contextWithUser, req.Message)
}
