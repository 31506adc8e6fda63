package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftlane/chatbridge"
	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
)

func newTestServer(t *testing.T, steps ...agent.ScriptStep) *Server {
	t.Helper()
	if len(steps) == 0 {
		steps = []agent.ScriptStep{
			{Token: "Hello"},
			{Token: " there"},
		}
	}
	cb := chatbridge.New()
	return New(cb, agent.NewScriptedRunner("supervisor", steps...))
}

func postSSE(t *testing.T, s *Server, req core.ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/chat/stream", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, r)
	return w
}

func parseSSE(t *testing.T, body string) []core.StreamChunk {
	t.Helper()
	var chunks []core.StreamChunk
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var c core.StreamChunk
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &c))
		chunks = append(chunks, c)
	}
	return chunks
}

func TestSSEStreamEndsWithTerminalChunk(t *testing.T) {
	s := newTestServer(t,
		agent.ScriptStep{Token: "You have "},
		agent.ScriptStep{Tool: "get_invoices"},
		agent.ScriptStep{Token: "3 invoices."},
	)

	w := postSSE(t, s, core.ChatRequest{Message: "invoices?", ConversationID: "conv-1", UserID: "u-1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	chunks := parseSSE(t, w.Body.String())
	require.NotEmpty(t, chunks)

	last := chunks[len(chunks)-1]
	assert.Equal(t, core.ChunkComplete, last.Type, "terminal frame must be last")
	for _, c := range chunks[:len(chunks)-1] {
		assert.False(t, c.Terminal())
	}

	var text strings.Builder
	for _, c := range chunks {
		if c.Type == core.ChunkToken {
			text.WriteString(c.Content)
		}
	}
	assert.Equal(t, "You have 3 invoices.", text.String())
}

func TestSSERejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp chatbridge.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.UserMessage)
}

func TestSSERejectsInvalidRequest(t *testing.T) {
	s := newTestServer(t)

	w := postSSE(t, s, core.ChatRequest{Message: "", ConversationID: "c", UserID: "u"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestWebSocketStream(t *testing.T) {
	s := newTestServer(t,
		agent.ScriptStep{Token: "Hi "},
		agent.ScriptStep{Token: "Ada"},
	)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	req := core.ChatRequest{Message: "hello", ConversationID: "conv-ws", UserID: "u-1"}
	require.NoError(t, wsjson.Write(ctx, conn, req))

	var chunks []core.StreamChunk
	for {
		var c core.StreamChunk
		require.NoError(t, wsjson.Read(ctx, conn, &c))
		chunks = append(chunks, c)
		if c.Terminal() {
			break
		}
	}

	last := chunks[len(chunks)-1]
	assert.Equal(t, core.ChunkComplete, last.Type)

	var text strings.Builder
	for _, c := range chunks {
		if c.Type == core.ChunkToken {
			text.WriteString(c.Content)
		}
	}
	assert.Equal(t, "Hi Ada", text.String())
}
