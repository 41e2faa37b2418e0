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

// WorldHandler serves the world book: characters and places per story.
type WorldHandler struct {
	world  service.WorldService
	logger *zap.Logger
}

func NewWorldHandler(world service.WorldService, logger *zap.Logger) *WorldHandler {
	return &WorldHandler{
		world:  world,
		logger: logger.Named("WorldHandler"),
	}
}

func (h *WorldHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/stories/:story_id/characters", h.createCharacter)
	api.GET("/stories/:story_id/characters", h.listCharacters)
	api.PUT("/characters/:character_id", h.updateCharacter)
	api.DELETE("/characters/:character_id", h.deleteCharacter)

	api.POST("/stories/:story_id/places", h.createPlace)
	api.GET("/stories/:story_id/places", h.listPlaces)
	api.PUT("/places/:place_id", h.updatePlace)
	api.DELETE("/places/:place_id", h.deletePlace)
}

func (h *WorldHandler) createCharacter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	character := characterFromRequest(uuid.Nil, req)
	character.StoryID = storyID
	created, err := h.world.CreateCharacter(c.Request.Context(), principal.UserID, character)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *WorldHandler) listCharacters(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	characters, err := h.world.ListCharacters(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": characters})
}

func (h *WorldHandler) updateCharacter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.world.UpdateCharacter(c.Request.Context(), principal.UserID, characterFromRequest(characterID, req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *WorldHandler) deleteCharacter(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	characterID, ok := parseUUIDParam(c, "character_id")
	if !ok {
		return
	}

	if err := h.world.DeleteCharacter(c.Request.Context(), principal.UserID, characterID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorldHandler) createPlace(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	place := placeFromRequest(uuid.Nil, req)
	place.StoryID = storyID
	created, err := h.world.CreatePlace(c.Request.Context(), principal.UserID, place)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *WorldHandler) listPlaces(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	places, err := h.world.ListPlaces(c.Request.Context(), principal.UserID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": places})
}

func (h *WorldHandler) updatePlace(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	placeID, ok := parseUUIDParam(c, "place_id")
	if !ok {
		return
	}

	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.world.UpdatePlace(c.Request.Context(), principal.UserID, placeFromRequest(placeID, req))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *WorldHandler) deletePlace(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	placeID, ok := parseUUIDParam(c, "place_id")
	if !ok {
		return
	}

	if err := h.world.DeletePlace(c.Request.Context(), principal.UserID, placeID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func characterFromRequest(id uuid.UUID, req characterRequest) *models.Character {
	return &models.Character{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		PortraitURL: req.PortraitURL,
		Traits:      req.Traits,
	}
}

func placeFromRequest(id uuid.UUID, req placeRequest) *models.Place {
	return &models.Place{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
}
