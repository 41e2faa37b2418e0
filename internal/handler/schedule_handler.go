package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/service"
)

// ScheduleHandler serves chapter publish schedules.
type ScheduleHandler struct {
	schedules service.ScheduleService
	logger    *zap.Logger
}

func NewScheduleHandler(schedules service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		logger:    logger.Named("ScheduleHandler"),
	}
}

func (h *ScheduleHandler) RegisterRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.POST("", h.createSchedule)
		schedules.GET("", h.listMySchedules)
		schedules.GET("/:schedule_id", h.getSchedule)
		schedules.PUT("/:schedule_id", h.reschedule)
		schedules.DELETE("/:schedule_id", h.cancelSchedule)
	}
}

func (h *ScheduleHandler) createSchedule(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.schedules.CreateSchedule(c.Request.Context(), principal.UserID, req.ChapterID, req.PublishAt)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Publish schedule created",
		zap.String("scheduleID", schedule.ID.String()),
		zap.String("chapterID", req.ChapterID.String()),
		zap.Time("publishAt", req.PublishAt))
	c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) listMySchedules(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	limit, offset := parsePagination(c)

	schedules, err := h.schedules.ListMySchedules(c.Request.Context(), principal.UserID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: schedules, Limit: limit, Offset: offset})
}

func (h *ScheduleHandler) getSchedule(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	scheduleID, ok := parseUUIDParam(c, "schedule_id")
	if !ok {
		return
	}

	schedule, err := h.schedules.GetSchedule(c.Request.Context(), principal.UserID, scheduleID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) reschedule(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	scheduleID, ok := parseUUIDParam(c, "schedule_id")
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.schedules.Reschedule(c.Request.Context(), principal.UserID, scheduleID, req.PublishAt)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) cancelSchedule(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	scheduleID, ok := parseUUIDParam(c, "schedule_id")
	if !ok {
		return
	}

	if err := h.schedules.CancelSchedule(c.Request.Context(), principal.UserID, scheduleID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
