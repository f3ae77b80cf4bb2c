package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"retrodrome/backend/internal/hub"
)

// EventsHandler streams store change events (catalog refreshes, rating
// and admin mutations, auth transitions) over SSE.
type EventsHandler struct {
	hub *hub.Hub
}

func NewEventsHandler(h *hub.Hub) *EventsHandler {
	return &EventsHandler{hub: h}
}

// Stream godoc
// @Summary      Subscribe to store events
// @Description  Server-sent event stream of catalog and session changes.
// @Tags         events
// @Produce      text/event-stream
// @Success      200 {string} string "SSE stream"
// @Router       /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	client := make(hub.Client, 16)
	h.hub.Subscribe(client)
	defer h.hub.Unsubscribe(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
