package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fictures-server/internal/events"
	"fictures-server/internal/models"
)

// EventsHandler serves the community event stream over SSE. Each connection
// subscribes to the hub and forwards event payloads verbatim, so clients see
// exactly the JSON that was published to Redis.
type EventsHandler struct {
	hub          *events.Hub
	pingInterval time.Duration
	logger       *zap.Logger
}

func NewEventsHandler(hub *events.Hub, pingInterval time.Duration, logger *zap.Logger) *EventsHandler {
	if pingInterval <= 0 {
		pingInterval = 25 * time.Second
	}
	return &EventsHandler{
		hub:          hub,
		pingInterval: pingInterval,
		logger:       logger.Named("EventsHandler"),
	}
}

func (h *EventsHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/community/events", h.stream)
}

func (h *EventsHandler) stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    models.ErrCodeInternal,
			Message: "Streaming unsupported",
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)
	sseStreamsTotal.Inc()
	h.logger.Debug("SSE stream opened", zap.String("clientIP", c.ClientIP()))

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE stream closed by client")
			return

		case event, open := <-sub.Events:
			if !open {
				// The hub dropped us, either on shutdown or for reading too
				// slowly. End the response so the client reconnects.
				h.logger.Debug("SSE stream closed by hub")
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			flusher.Flush()

		case <-ping.C:
			// Comment line keeps idle proxies from timing the stream out.
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		}
	}
}
