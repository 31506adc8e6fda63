package chatbridge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
	"github.com/craftlane/chatbridge/internal/testutil"
)

func drain(t *testing.T, chunks <-chan core.StreamChunk) []core.StreamChunk {
	t.Helper()
	var got []core.StreamChunk
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				return got
			}
			got = append(got, c)
		case <-deadline:
			t.Fatal("stream did not finish in time")
		}
	}
}

func TestStreamChatHappyPath(t *testing.T) {
	st := testutil.NewFakeStore()
	cb := New(WithStore(st))

	runner := agent.NewScriptedRunner("supervisor",
		agent.ScriptStep{Token: "You have "},
		agent.ScriptStep{Tool: "get_invoices"},
		agent.ScriptStep{Token: "3 open invoices."},
	)

	req := core.ChatRequest{Message: "how many invoices?", ConversationID: "conv-1", UserID: "user-1"}
	chunks, err := cb.StreamChat(context.Background(), runner, req)
	require.NoError(t, err)

	got := drain(t, chunks)
	require.NotEmpty(t, got)

	last := got[len(got)-1]
	assert.Equal(t, core.ChunkComplete, last.Type, "stream must end with a complete chunk")
	assert.Equal(t, core.AgentTypeSupervisor, last.AgentType)

	terminals := 0
	var text strings.Builder
	sawTool := false
	for _, c := range got {
		if c.Terminal() {
			terminals++
		}
		if c.Type == core.ChunkToken {
			text.WriteString(c.Content)
		}
		if c.Type == core.ChunkToolStart {
			sawTool = true
			assert.Equal(t, "get_invoices", c.ToolName)
		}
	}
	assert.Equal(t, 1, terminals, "exactly one terminal chunk per stream")
	assert.Equal(t, "You have 3 open invoices.", text.String())
	assert.True(t, sawTool)

	// Both turns persisted, with tool metadata on the assistant turn.
	saved := st.Saved("conv-1")
	require.Len(t, saved, 2)
	assert.Equal(t, core.RoleUser, saved[0].Role)
	assert.Equal(t, "how many invoices?", saved[0].Content)
	assert.Equal(t, core.RoleAssistant, saved[1].Role)
	assert.Equal(t, "You have 3 open invoices.", saved[1].Content)
	assert.Equal(t, core.AgentTypeSupervisor, saved[1].AgentType)
	require.Contains(t, saved[1].Metadata, core.MetaToolCalls)
}

func TestStreamChatErrorEndsWithErrorChunk(t *testing.T) {
	st := testutil.NewFakeStore()
	cb := New(WithStore(st))

	runner := agent.NewScriptedRunner("flaky",
		agent.ScriptStep{Token: "Starting"},
		agent.ScriptStep{Err: errors.New("connection reset by peer")},
	)

	req := core.ChatRequest{Message: "hi", ConversationID: "conv-1", UserID: "user-1"}
	chunks, err := cb.StreamChat(context.Background(), runner, req)
	require.NoError(t, err)

	got := drain(t, chunks)
	require.NotEmpty(t, got)

	last := got[len(got)-1]
	assert.Equal(t, core.ChunkError, last.Type)
	assert.Equal(t, "Unable to connect to the service. Please check your internet connection and try again.", last.Error,
		"error text must be user-facing, not the raw failure")

	for _, c := range got[:len(got)-1] {
		assert.False(t, c.Terminal(), "terminal chunk must be last")
	}

	// Only the user turn is persisted; the partial response is not.
	saved := st.Saved("conv-1")
	require.Len(t, saved, 1)
	assert.Equal(t, core.RoleUser, saved[0].Role)
}

func TestStreamChatRejectsInvalidRequest(t *testing.T) {
	cb := New()
	runner := agent.NewScriptedRunner("any")

	_, err := cb.StreamChat(context.Background(), runner, core.ChatRequest{})
	require.Error(t, err)

	_, err = cb.StreamChat(context.Background(), nil, core.ChatRequest{
		Message: "hi", ConversationID: "c", UserID: "u",
	})
	require.Error(t, err)
}

func TestStreamChatCancellationEmitsNoTerminal(t *testing.T) {
	cb := New(WithStore(testutil.NewFakeStore()))

	runner := agent.NewScriptedRunner("slow",
		agent.ScriptStep{Token: "first"},
		agent.ScriptStep{Delay: 300 * time.Millisecond, Token: "late"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	req := core.ChatRequest{Message: "hi", ConversationID: "conv-1", UserID: "user-1"}
	chunks, err := cb.StreamChat(ctx, runner, req)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	cancel()

	got := drain(t, chunks)
	for _, c := range got {
		assert.False(t, c.Terminal(), "abandoned streams end silently")
	}
}

func TestStreamChatUsesStoredHistory(t *testing.T) {
	st := testutil.NewFakeStore()
	st.Seed("conv-1", []core.Message{
		testutil.NewMessageBuilder().User("my name is Ada").Build(),
		testutil.NewMessageBuilder().Assistant("Nice to meet you, Ada.").Build(),
	})
	cb := New(WithStore(st))

	var sawPrompt string
	runner := &promptCapturingRunner{inner: agent.NewScriptedRunner("echo", agent.ScriptStep{Token: "ok"}), captured: &sawPrompt}

	req := core.ChatRequest{Message: "what is my name?", ConversationID: "conv-1", UserID: "user-1"}
	chunks, err := cb.StreamChat(context.Background(), runner, req)
	require.NoError(t, err)
	drain(t, chunks)

	assert.Contains(t, sawPrompt, "[SYSTEM: User ID is user-1]")
	assert.Contains(t, sawPrompt, "Previous conversation:")
	assert.Contains(t, sawPrompt, "User: my name is Ada")
	assert.True(t, strings.HasSuffix(sawPrompt, "User: what is my name?"))
}

// promptCapturingRunner records the prompt it was invoked with.
type promptCapturingRunner struct {
	inner    agent.Runner
	captured *string
}

func (r *promptCapturingRunner) Invoke(ctx context.Context, prompt string, onPartial agent.PartialFunc) (agent.Result, error) {
	*r.captured = prompt
	return r.inner.Invoke(ctx, prompt, onPartial)
}

func (r *promptCapturingRunner) Info() agent.Info { return r.inner.Info() }

func TestTranslateErrorCategories(t *testing.T) {
	cases := []struct {
		err  string
		want string
	}{
		{"connection refused", "Unable to connect to the service. Please check your internet connection and try again."},
		{"request unauthorized", "Authentication failed. Please log in again."},
		{"rate limit exceeded", "Too many requests. Please wait a moment and try again."},
		{"model not ready", "The AI service is temporarily unavailable. Please try again in a moment."},
		{"database unreachable", "Unable to access your data. Please try again."},
		{"validation failed", "Invalid input. Please check your message and try again."},
		{"something odd", "An unexpected error occurred. Please try again."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TranslateError(errors.New(tc.err)), tc.err)
	}
}

func TestNewErrorResponseShape(t *testing.T) {
	resp := NewErrorResponse(errors.New("connection reset"), "UPSTREAM_ERROR", true)
	assert.Equal(t, "UPSTREAM_ERROR", resp.Error.Code)
	assert.Equal(t, "connection reset", resp.Error.Message)
	assert.NotEmpty(t, resp.Error.UserMessage)
	assert.NotEmpty(t, resp.Error.SuggestedActions)
	assert.True(t, resp.Error.Retryable)
}
