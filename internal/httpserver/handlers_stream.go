package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/metrics"
)

// handleStream serves change events over Server-Sent Events. The connection
// stays open until the client disconnects, the subscriber is closed, or the
// instance shuts down; idle periods are bridged with comment heartbeats so
// proxies keep the stream alive.
func (s *Server) handleStream(c echo.Context) error {
	if !s.limiter.Acquire() {
		metrics.StreamConnectionsRejected.Inc()
		return echo.NewHTTPError(http.StatusServiceUnavailable, "stream capacity reached")
	}
	defer s.limiter.Release()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	metrics.StreamConnectionsActive.Inc()
	defer metrics.StreamConnectionsActive.Dec()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil
	}
	w.Flush()

	ctx := c.Request().Context()
	for {
		payload, ok, err := sub.Receive(ctx, s.config.HeartbeatInterval)
		if err != nil {
			// Client gone or hub shut down. Neither is a handler failure.
			return nil
		}
		if !ok {
			metrics.HubHeartbeatsTotal.Inc()
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return nil
		}
		w.Flush()
	}
}
