package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// keepaliveInterval is how often an SSE comment line is sent so intermediary
// proxies keep the connection open.
const keepaliveInterval = 25 * time.Second

// RealtimeHandler streams pulse events to connected clients over SSE.
type RealtimeHandler struct {
	pulse ports.PulseSubscriber
}

func NewRealtimeHandler(pulse ports.PulseSubscriber) *RealtimeHandler {
	return &RealtimeHandler{pulse: pulse}
}

// Stream handles GET /v1/realtime/:entity_id. The connection stays open until
// the client disconnects; each pulse event is one SSE data frame.
//
// @Summary      Live pulse stream for one entity
// @Tags         realtime
// @Produce      text/event-stream
// @Param        entity_id  path  string  true  "Entity ID"
// @Success      200  "SSE stream"
// @Router       /v1/realtime/{entity_id} [get]
func (h *RealtimeHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()

	msgs, cancel, err := h.pulse.Subscribe(ctx, c.Param("entity_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "stream unavailable")
	}
	defer cancel()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(resp, "data: %s\n\n", msg); err != nil {
				return nil
			}
			resp.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(resp, ": keepalive\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
