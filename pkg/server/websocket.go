package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vessel/pkg/hydrate"
)

// socketResponse is one reply on the socket. Exactly one of Result and
// Error is set.
type socketResponse struct {
	ID     string          `json:"id,omitempty"`
	Result *hydrate.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// handleSocket upgrades to a WebSocket that accepts one HydrateRequest
// per text message and answers each in order.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.sockets.Add(1)
	defer s.sockets.Add(-1)
	defer conn.Close()

	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Debug("socket opened")

	conn.SetReadLimit(s.config.MaxBodyBytes)
	idle := s.config.SocketIdleTimeout
	conn.SetReadDeadline(time.Now().Add(idle))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idle))
	})

	done := make(chan struct{})
	defer close(done)
	go s.heartbeat(conn, done, idle/2)

	ctx := r.Context()
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				logger.Error("read error", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(idle))
		if typ != websocket.TextMessage {
			if err := s.writeSocket(conn, socketResponse{Error: "expected a text message"}); err != nil {
				return
			}
			continue
		}

		var req HydrateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			if err := s.writeSocket(conn, socketResponse{Error: "invalid request: " + err.Error()}); err != nil {
				return
			}
			continue
		}

		resp := socketResponse{ID: req.ID}
		res, err := s.driver.Hydrate(ctx, req.HTML, req.Options(s.config.Defaults))
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Result = res
		}
		if err := s.writeSocket(conn, resp); err != nil {
			logger.Error("write error", "error", err)
			return
		}
	}
}

func (s *Server) writeSocket(conn *websocket.Conn, resp socketResponse) error {
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return conn.WriteJSON(resp)
}

// heartbeat pings the peer until done is closed. WriteControl may run
// concurrently with the reader's writes.
func (s *Server) heartbeat(conn *websocket.Conn, done <-chan struct{}, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
