package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

// AnalyticsHandler records usage events and serves the owner dashboards.
// Recording is open to every authenticated principal; queries require the
// analytics:read scope.
type AnalyticsHandler struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger.Named("AnalyticsHandler"),
	}
}

func (h *AnalyticsHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/analytics/events", h.recordEvent)

	readScope := middleware.RequireScope(models.ScopeAnalyticsRead)
	api.GET("/stories/:story_id/analytics", readScope, h.storySummary)
	api.GET("/stories/:story_id/analytics/events", readScope, h.eventCounts)
}

func (h *AnalyticsHandler) recordEvent(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := principal.UserID
	event := &models.AnalyticsEvent{
		UserID:    &userID,
		StoryID:   req.StoryID,
		ChapterID: req.ChapterID,
		EventType: req.EventType,
		Payload:   req.Payload,
	}
	if err := h.analytics.Record(c.Request.Context(), event); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.StatusResponse{Status: "recorded"})
}

func (h *AnalyticsHandler) storySummary(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	summary, err := h.analytics.StorySummary(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) eventCounts(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	eventType := c.Query("event_type")
	if eventType == "" {
		badRequest(c, "event_type query parameter is required")
		return
	}

	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}

	counts, err := h.analytics.EventCounts(c.Request.Context(), principal.UserID, storyID, eventType, from, to)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": counts})
}

// parseTimeQuery reads an optional RFC 3339 query parameter; a missing
// parameter yields the zero time and the service applies its default range.
func parseTimeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, "Invalid "+name+" timestamp, expected RFC 3339")
		return time.Time{}, false
	}
	return t, true
}
