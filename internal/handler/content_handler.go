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

// ContentHandler serves story structure: parts, chapters and scenes.
// Chapter publication goes through the story service so the API path and
// the scheduler share one publication routine.
type ContentHandler struct {
	content service.ContentService
	stories service.StoryService
	logger  *zap.Logger
}

func NewContentHandler(content service.ContentService, stories service.StoryService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		content: content,
		stories: stories,
		logger:  logger.Named("ContentHandler"),
	}
}

func (h *ContentHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/stories/:story_id/parts", h.createPart)
	api.GET("/stories/:story_id/parts", h.listParts)
	api.PUT("/parts/:part_id", h.updatePart)
	api.DELETE("/parts/:part_id", h.deletePart)

	api.POST("/stories/:story_id/chapters", h.createChapter)
	api.GET("/stories/:story_id/chapters", h.listChapters)
	api.GET("/chapters/:chapter_id", h.getChapter)
	api.PUT("/chapters/:chapter_id", h.updateChapter)
	api.DELETE("/chapters/:chapter_id", h.deleteChapter)
	api.POST("/chapters/:chapter_id/publish", h.publishChapter)

	api.POST("/chapters/:chapter_id/scenes", h.createScene)
	api.GET("/chapters/:chapter_id/scenes", h.listScenes)
	api.GET("/scenes/:scene_id", h.getScene)
	api.PUT("/scenes/:scene_id", h.updateScene)
	api.DELETE("/scenes/:scene_id", h.deleteScene)
}

// --- Parts ---

func (h *ContentHandler) createPart(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	var req partRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part := &models.StoryPart{StoryID: storyID, Title: req.Title, Position: req.Position}
	created, err := h.content.CreatePart(c.Request.Context(), principal.UserID, part)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ContentHandler) listParts(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	parts, err := h.content.ListParts(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": parts})
}

func (h *ContentHandler) updatePart(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	partID, ok := parseUUIDParam(c, "part_id")
	if !ok {
		return
	}

	var req partRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part := &models.StoryPart{ID: partID, Title: req.Title, Position: req.Position}
	updated, err := h.content.UpdatePart(c.Request.Context(), principal.UserID, part)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ContentHandler) deletePart(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	partID, ok := parseUUIDParam(c, "part_id")
	if !ok {
		return
	}

	if err := h.content.DeletePart(c.Request.Context(), principal.UserID, partID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Chapters ---

func (h *ContentHandler) createChapter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	chapter := chapterFromRequest(uuid.Nil, req)
	chapter.StoryID = storyID
	created, err := h.content.CreateChapter(c.Request.Context(), principal.UserID, chapter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ContentHandler) listChapters(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	chapters, err := h.content.ListChapters(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": chapters})
}

func (h *ContentHandler) getChapter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	chapterID, ok := parseUUIDParam(c, "chapter_id")
	if !ok {
		return
	}

	chapter, err := h.content.GetChapter(c.Request.Context(), principal.UserID, chapterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *ContentHandler) updateChapter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	chapterID, ok := parseUUIDParam(c, "chapter_id")
	if !ok {
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.content.UpdateChapter(c.Request.Context(), principal.UserID, chapterFromRequest(chapterID, req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ContentHandler) deleteChapter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	chapterID, ok := parseUUIDParam(c, "chapter_id")
	if !ok {
		return
	}

	if err := h.content.DeleteChapter(c.Request.Context(), principal.UserID, chapterID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) publishChapter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	chapterID, ok := parseUUIDParam(c, "chapter_id")
	if !ok {
		return
	}

	chapter, err := h.stories.PublishChapter(c.Request.Context(), principal.UserID, chapterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	chaptersPublishedTotal.Inc()
	h.logger.Info("Chapter published over API",
		zap.String("chapterID", chapterID.String()),
		zap.String("ownerID", principal.UserID.String()))
	c.JSON(http.StatusOK, chapter)
}

// --- Scenes ---

func (h *ContentHandler) createScene(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	chapterID, ok := parseUUIDParam(c, "chapter_id")
	if !ok {
		return
	}

	var req sceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	scene := sceneFromRequest(uuid.Nil, req)
	scene.ChapterID = chapterID
	created, err := h.content.CreateScene(c.Request.Context(), principal.UserID, scene)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ContentHandler) listScenes(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	chapterID, ok := parseUUIDParam(c, "chapter_id")
	if !ok {
		return
	}

	scenes, err := h.content.ListScenes(c.Request.Context(), principal.UserID, chapterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": scenes})
}

func (h *ContentHandler) getScene(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	sceneID, ok := parseUUIDParam(c, "scene_id")
	if !ok {
		return
	}

	scene, err := h.content.GetScene(c.Request.Context(), principal.UserID, sceneID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scene)
}

func (h *ContentHandler) updateScene(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	sceneID, ok := parseUUIDParam(c, "scene_id")
	if !ok {
		return
	}

	var req sceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.content.UpdateScene(c.Request.Context(), principal.UserID, sceneFromRequest(sceneID, req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ContentHandler) deleteScene(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	sceneID, ok := parseUUIDParam(c, "scene_id")
	if !ok {
		return
	}

	if err := h.content.DeleteScene(c.Request.Context(), principal.UserID, sceneID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func chapterFromRequest(id uuid.UUID, req chapterRequest) *models.Chapter {
	return &models.Chapter{
		ID:       id,
		Title:    req.Title,
		Synopsis: req.Synopsis,
		PartID:   req.PartID,
		Position: req.Position,
	}
}

func sceneFromRequest(id uuid.UUID, req sceneRequest) *models.Scene {
	return &models.Scene{
		ID:          id,
		Title:       req.Title,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		ImagePrompt: req.ImagePrompt,
		Position:    req.Position,
	}
}
