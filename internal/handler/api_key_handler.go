package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/service"
)

// APIKeyHandler serves API key management. The whole group is session-only:
// a key must not be able to mint or revoke keys.
type APIKeyHandler struct {
	keys   service.APIKeyService
	logger *zap.Logger
}

func NewAPIKeyHandler(keys service.APIKeyService, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		keys:   keys,
		logger: logger.Named("APIKeyHandler"),
	}
}

func (h *APIKeyHandler) RegisterRoutes(api *gin.RouterGroup) {
	keys := api.Group("/api-keys", middleware.RequireSession())
	{
		keys.POST("", h.createKey)
		keys.GET("", h.listKeys)
		keys.DELETE("/:key_id", h.revokeKey)
	}
}

func (h *APIKeyHandler) createKey(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	key, plaintext, err := h.keys.Create(c.Request.Context(), principal.UserID, req.Name, req.Scopes, req.ExpiresAt)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("API key created",
		zap.String("keyID", key.ID),
		zap.String("userID", principal.UserID.String()),
		zap.Strings("scopes", key.Scopes))

	// The plaintext key appears in this response and nowhere else.
	c.JSON(http.StatusCreated, gin.H{
		"key":       key,
		"plaintext": plaintext,
	})
}

func (h *APIKeyHandler) listKeys(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	keys, err := h.keys.List(c.Request.Context(), principal.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": keys})
}

func (h *APIKeyHandler) revokeKey(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	keyID := c.Param("key_id")
	if keyID == "" {
		badRequest(c, "key_id is required")
		return
	}

	if err := h.keys.Revoke(c.Request.Context(), principal.UserID, keyID); err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("API key revoked",
		zap.String("keyID", keyID),
		zap.String("userID", principal.UserID.String()))
	c.Status(http.StatusNoContent)
}
