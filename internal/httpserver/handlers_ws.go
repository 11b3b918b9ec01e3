package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/metrics"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The API is origin-agnostic; events carry no credentials.
		return true
	},
}

// handleWebSocket serves change events over a WebSocket as an alternative to
// the SSE stream. Each event is one text frame; idle periods are bridged
// with ping control frames.
func (s *Server) handleWebSocket(c echo.Context) error {
	if !s.limiter.Acquire() {
		metrics.StreamConnectionsRejected.Inc()
		return echo.NewHTTPError(http.StatusServiceUnavailable, "stream capacity reached")
	}
	defer s.limiter.Release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		return nil
	}
	defer func() {
		_ = conn.Close()
	}()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	metrics.StreamConnectionsActive.Inc()
	defer metrics.StreamConnectionsActive.Dec()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Reader pump: inbound frames are discarded, but a read error means the
	// client went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		payload, ok, err := sub.Receive(ctx, s.config.HeartbeatInterval)
		if err != nil {
			return nil
		}

		deadline := time.Now().Add(wsWriteTimeout)
		if !ok {
			metrics.HubHeartbeatsTotal.Inc()
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}
			continue
		}

		_ = conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return nil
		}
	}
}
