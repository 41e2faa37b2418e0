package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

// StoryHandler serves the story lifecycle, likes and the community feed.
type StoryHandler struct {
	stories service.StoryService
	logger  *zap.Logger
}

func NewStoryHandler(stories service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		stories: stories,
		logger:  logger.Named("StoryHandler"),
	}
}

func (h *StoryHandler) RegisterRoutes(api *gin.RouterGroup) {
	stories := api.Group("/stories")
	{
		stories.POST("", h.createStory)
		stories.GET("", h.listMyStories)
		stories.GET("/:story_id", h.getStory)
		stories.PUT("/:story_id", h.updateStory)
		stories.DELETE("/:story_id", h.deleteStory)

		stories.POST("/:story_id/publish", h.publishStory)
		stories.POST("/:story_id/unpublish", h.unpublishStory)
		stories.POST("/:story_id/archive", h.archiveStory)

		stories.POST("/:story_id/like", h.likeStory)
		stories.DELETE("/:story_id/like", h.unlikeStory)
		stories.GET("/:story_id/like", h.likedByMe)
	}

	api.GET("/community/stories", h.communityFeed)
}

func (h *StoryHandler) createStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	story, err := h.stories.CreateStory(c.Request.Context(), principal.UserID, storyFromRequest(uuid.Nil, req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (h *StoryHandler) listMyStories(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	limit, offset := parsePagination(c)

	stories, err := h.stories.ListMyStories(c.Request.Context(), principal.UserID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: stories, Limit: limit, Offset: offset})
}

func (h *StoryHandler) getStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	story, err := h.stories.GetStory(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) updateStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	story, err := h.stories.UpdateStory(c.Request.Context(), principal.UserID, storyFromRequest(storyID, req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) deleteStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	if err := h.stories.DeleteStory(c.Request.Context(), principal.UserID, storyID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) publishStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	story, err := h.stories.PublishStory(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	storiesPublishedTotal.Inc()
	h.logger.Info("Story published over API",
		zap.String("storyID", storyID.String()),
		zap.String("ownerID", principal.UserID.String()))
	c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) unpublishStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	story, err := h.stories.UnpublishStory(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) archiveStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	story, err := h.stories.ArchiveStory(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) likeStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	if err := h.stories.LikeStory(c.Request.Context(), principal.UserID, storyID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.StatusResponse{Status: "liked"})
}

func (h *StoryHandler) unlikeStory(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	if err := h.stories.UnlikeStory(c.Request.Context(), principal.UserID, storyID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) likedByMe(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	liked, err := h.stories.LikedByUser(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *StoryHandler) communityFeed(c *gin.Context) {
	limit, offset := parsePagination(c)
	genre := c.Query("genre")

	stories, err := h.stories.Feed(c.Request.Context(), genre, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: stories, Limit: limit, Offset: offset})
}

func storyFromRequest(id uuid.UUID, req storyRequest) *models.Story {
	return &models.Story{
		ID:            id,
		Title:         req.Title,
		Slug:          req.Slug,
		Summary:       req.Summary,
		Genre:         req.Genre,
		Kind:          models.StoryKind(req.Kind),
		CoverImageURL: req.CoverImageURL,
	}
}
