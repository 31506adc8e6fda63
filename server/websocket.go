package server

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/craftlane/chatbridge"
	"github.com/craftlane/chatbridge/core"
)

// HandleWebSocket streams chat chunks over a WebSocket connection. The
// client sends one JSON chat request per message; each request is answered
// with a sequence of JSON chunk frames ending in a terminal chunk. The
// connection stays open for further requests.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	ctx := r.Context()
	for {
		var req core.ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			s.logger.Info("websocket read ended", "error", err)
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		chunks, err := s.bridge.StreamChat(ctx, s.runner, req)
		if err != nil {
			if werr := wsjson.Write(ctx, conn, core.ErrorChunk(chatbridge.TranslateError(err))); werr != nil {
				s.logger.Info("websocket write failed", "error", werr)
				return
			}
			continue
		}

		for chunk := range chunks {
			if err := wsjson.Write(ctx, conn, chunk); err != nil {
				s.logger.Info("websocket write failed, stopping stream", "error", err)
				return
			}
		}
	}
}
