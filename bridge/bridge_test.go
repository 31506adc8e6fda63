package bridge

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
)

// collect drains the chunk stream to completion and returns the chunks plus
// the terminal error, if any.
func collect(t *testing.T, chunks <-chan core.StreamChunk, errs <-chan error) ([]core.StreamChunk, error) {
	t.Helper()

	var got []core.StreamChunk
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				return got, <-errs
			}
			got = append(got, c)
		case <-deadline:
			t.Fatal("stream did not finish in time")
		}
	}
}

func joinTokens(chunks []core.StreamChunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		if c.Type == core.ChunkToken {
			sb.WriteString(c.Content)
		}
	}
	return sb.String()
}

func TestStreamPreservesTokenOrderAndText(t *testing.T) {
	steps := make([]agent.ScriptStep, 0, 12)
	want := ""
	for _, tok := range []string{"The", " quick", " brown", " fox", " jumps", " over", " the", " lazy", " dog", ".", " The", " end"} {
		steps = append(steps, agent.ScriptStep{Token: tok})
		want += tok
	}
	runner := agent.NewScriptedRunner("writer", steps...)

	b := New()
	chunks, errs, err := b.Stream(context.Background(), runner, "tell a story")
	require.NoError(t, err)

	got, terminalErr := collect(t, chunks, errs)
	require.NoError(t, terminalErr)

	assert.Equal(t, want, joinTokens(got), "concatenated tokens must equal the full output")
	assert.LessOrEqual(t, len(got), 12, "batching should never increase chunk count")
	for _, c := range got {
		assert.Equal(t, core.ChunkToken, c.Type)
		assert.Equal(t, core.AgentTypeSupervisor, c.AgentType)
		assert.False(t, c.Terminal(), "bridge must not emit terminal chunks")
	}
}

func TestStreamBatchesRapidTokens(t *testing.T) {
	var steps []agent.ScriptStep
	for i := 0; i < 20; i++ {
		steps = append(steps, agent.ScriptStep{Token: "x"})
	}
	runner := agent.NewScriptedRunner("rapid", steps...)

	b := New()
	chunks, errs, err := b.Stream(context.Background(), runner, "go")
	require.NoError(t, err)

	got, terminalErr := collect(t, chunks, errs)
	require.NoError(t, terminalErr)

	assert.Equal(t, strings.Repeat("x", 20), joinTokens(got))
	// 20 back-to-back fragments with a batch size of 5 coalesce into far
	// fewer chunks; allow slack for scheduling-induced early flushes.
	assert.LessOrEqual(t, len(got), 10)
}

func TestStreamDeduplicatesToolAnnouncements(t *testing.T) {
	runner := agent.NewScriptedRunner("tooluser",
		agent.ScriptStep{Token: "Looking that up."},
		agent.ScriptStep{Tool: "get_invoices"},
		agent.ScriptStep{Tool: "get_invoices"},
		agent.ScriptStep{Tool: "get_invoices"},
		agent.ScriptStep{Token: "Found 3 invoices."},
	)

	b := New()
	chunks, errs, err := b.Stream(context.Background(), runner, "invoices?")
	require.NoError(t, err)

	got, terminalErr := collect(t, chunks, errs)
	require.NoError(t, terminalErr)

	var tools []string
	for _, c := range got {
		if c.Type == core.ChunkToolStart {
			tools = append(tools, c.ToolName)
		}
	}
	assert.Equal(t, []string{"get_invoices"}, tools, "repeated announcements collapse to one")
	assert.Equal(t, "Looking that up.Found 3 invoices.", joinTokens(got))
}

func TestStreamFlushesTokensBeforeToolBoundary(t *testing.T) {
	runner := agent.NewScriptedRunner("ordered",
		agent.ScriptStep{Token: "Let me "},
		agent.ScriptStep{Token: "check"},
		agent.ScriptStep{Tool: "calendar_lookup"},
		agent.ScriptStep{Token: "Tomorrow at 9."},
	)

	b := New()
	chunks, errs, err := b.Stream(context.Background(), runner, "free tomorrow?")
	require.NoError(t, err)

	got, terminalErr := collect(t, chunks, errs)
	require.NoError(t, terminalErr)

	toolIdx := -1
	for i, c := range got {
		if c.Type == core.ChunkToolStart {
			toolIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, toolIdx, 0, "tool chunk missing")
	assert.Equal(t, "Let me check", joinTokens(got[:toolIdx]), "pre-tool text must precede the tool chunk")
	assert.Equal(t, "Tomorrow at 9.", joinTokens(got[toolIdx+1:]))
}

func TestStreamReportsErrorAfterPartialTokens(t *testing.T) {
	boom := errors.New("model unavailable")
	runner := agent.NewScriptedRunner("flaky",
		agent.ScriptStep{Token: "Starting"},
		agent.ScriptStep{Token: " to answer"},
		agent.ScriptStep{Err: boom},
	)

	b := New()
	chunks, errs, err := b.Stream(context.Background(), runner, "hi")
	require.NoError(t, err)

	got, terminalErr := collect(t, chunks, errs)
	require.Error(t, terminalErr)
	assert.Contains(t, terminalErr.Error(), "model unavailable")
	assert.Equal(t, "Starting to answer", joinTokens(got), "partial output flushes before the error")
}

func TestStreamAbandonsOnCancel(t *testing.T) {
	runner := agent.NewScriptedRunner("slow",
		agent.ScriptStep{Token: "first"},
		agent.ScriptStep{Delay: 200 * time.Millisecond, Token: "never seen"},
	)

	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	chunks, errs, err := b.Stream(ctx, runner, "hi")
	require.NoError(t, err)

	// Let the first token through, then walk away.
	time.Sleep(50 * time.Millisecond)
	cancel()

	start := time.Now()
	got, terminalErr := collect(t, chunks, errs)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "driver must stop well before the slow step finishes")
	assert.NoError(t, terminalErr)
	for _, c := range got {
		assert.False(t, c.Terminal())
	}
}

func TestStreamNilRunnerRejected(t *testing.T) {
	b := New()
	_, _, err := b.Stream(context.Background(), nil, "hi")
	require.Error(t, err)
}

func TestStreamPoolExhaustion(t *testing.T) {
	cfg := DefaultConfig
	cfg.MaxConcurrent = 1
	b := New(WithConfig(cfg))

	slow := agent.NewScriptedRunner("slow",
		agent.ScriptStep{Delay: 300 * time.Millisecond, Token: "done"},
	)

	chunks, errs, err := b.Stream(context.Background(), slow, "one")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, _, err = b.Stream(ctx, agent.NewScriptedRunner("fast"), "two")
	require.Error(t, err, "second stream must wait for the held slot and time out")

	_, terminalErr := collect(t, chunks, errs)
	assert.NoError(t, terminalErr)
}
