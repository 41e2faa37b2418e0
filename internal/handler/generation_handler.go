package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

// GenerationHandler serves the synchronous AI endpoints and the async task
// queue. Everything that triggers a provider call requires the ai:use scope.
type GenerationHandler struct {
	generation service.GenerationService
	logger     *zap.Logger
}

func NewGenerationHandler(generation service.GenerationService, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{
		generation: generation,
		logger:     logger.Named("GenerationHandler"),
	}
}

func (h *GenerationHandler) RegisterRoutes(api *gin.RouterGroup) {
	useScope := middleware.RequireScope(models.ScopeAIUse)

	ai := api.Group("/ai")
	{
		ai.POST("/text", useScope, h.generateText)
		ai.POST("/images", useScope, h.generateImage)
		ai.GET("/models", h.listModels)
	}

	generations := api.Group("/generations")
	{
		generations.POST("", useScope, h.enqueueTask)
		generations.GET("", h.listMyResults)
		generations.GET("/:task_id", h.getResult)
	}
}

func (h *GenerationHandler) generateText(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req models.TextGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.generation.GenerateText(c.Request.Context(), principal.UserID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GenerationHandler) generateImage(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req models.ImageGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.generation.GenerateImage(c.Request.Context(), principal.UserID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GenerationHandler) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.generation.ListModels()})
}

func (h *GenerationHandler) enqueueTask(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req enqueueGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payload := models.GenerationTaskPayload{
		StoryID:        req.StoryID,
		Kind:           models.GenerationKind(req.Kind),
		Prompt:         req.Prompt,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
	}
	result, err := h.generation.EnqueueTask(c.Request.Context(), principal.UserID, payload)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.logger.Info("Generation task accepted",
		zap.String("taskID", result.ID),
		zap.String("kind", string(result.Kind)),
		zap.String("userID", principal.UserID.String()))
	c.JSON(http.StatusAccepted, result)
}

func (h *GenerationHandler) listMyResults(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	limit, offset := parsePagination(c)

	results, err := h.generation.ListMyResults(c.Request.Context(), principal.UserID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse{Data: results, Limit: limit, Offset: offset})
}

func (h *GenerationHandler) getResult(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	taskID := c.Param("task_id")
	if taskID == "" {
		badRequest(c, "task_id is required")
		return
	}

	result, err := h.generation.GetResult(c.Request.Context(), principal.UserID, taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
