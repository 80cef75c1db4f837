package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	wsWriteTimeout  = 10 * time.Second
	wsPollInterval  = 200 * time.Millisecond
	wsStreamTimeout = 30 * time.Minute
)

// convertWebSocketHandler streams job progress snapshots until the job
// reaches a terminal state or the client goes away.
func (s *Server) convertWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		authFailuresTotal.Inc()
		writeError(w, http.StatusUnauthorized, "invalid or missing API key")
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/file/convert2md/ws/")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "missing task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), wsStreamTimeout)
	defer cancel()

	ch, err := s.manager.Watch(ctx, taskID, wsPollInterval)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("websocket progress stream opened", "task_id", taskID, "remote_addr", r.RemoteAddr)

	for job := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(taskResult(job)); err != nil {
			slog.Warn("websocket write failed", "task_id", taskID, "error", err)
			return
		}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}
