package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/craftlane/chatbridge"
	"github.com/craftlane/chatbridge/agent"
	"github.com/craftlane/chatbridge/core"
	"github.com/craftlane/chatbridge/logging"
)

// Options configures a Server using the functional options pattern.
type Options struct {
	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Server routes chat requests to the bridge and streams chunks back out.
type Server struct {
	bridge *chatbridge.ChatBridge
	runner agent.Runner
	logger logging.Logger
}

// New creates a Server streaming through cb with the given agent runner.
func New(cb *chatbridge.ChatBridge, runner agent.Runner, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Server{bridge: cb, runner: runner, logger: opts.Logger}
}

// Routes returns the HTTP mux with the streaming endpoints mounted.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/stream", s.HandleSSE)
	mux.HandleFunc("GET /api/chat/ws", s.HandleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSSE streams chat chunks as Server-Sent Events. Each chunk becomes
// one "data: {json}\n\n" frame, flushed immediately.
func (s *Server) HandleSSE(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("decode request: %w", err), false)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED",
			errors.New("response writer does not support streaming"), false)
		return
	}

	chunks, err := s.bridge.StreamChat(r.Context(), s.runner, req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err, false)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for chunk := range chunks {
		payload, err := json.Marshal(chunk)
		if err != nil {
			s.logger.Error("encoding chunk failed", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			s.logger.Info("client write failed, stopping stream", "error", err)
			return
		}
		flusher.Flush()
	}
}

// writeError sends a standardized JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error, retryable bool) {
	s.logger.Warn("request rejected", "status", status, "code", code, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(chatbridge.NewErrorResponse(err, code, retryable))
}
