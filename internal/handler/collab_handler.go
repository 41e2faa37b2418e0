package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

var collabUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CollabHandler upgrades story collaboration requests to websocket
// connections and places them in the hub's per-story room.
type CollabHandler struct {
	hub         *CollabHub
	authService service.AuthService
	stories     service.StoryService
	logger      *zap.Logger
}

func NewCollabHandler(hub *CollabHub, authService service.AuthService, stories service.StoryService, logger *zap.Logger) *CollabHandler {
	return &CollabHandler{
		hub:         hub,
		authService: authService,
		stories:     stories,
		logger:      logger.Named("CollabHandler"),
	}
}

// RegisterRoutes mounts the websocket endpoint. It lives outside the
// authenticated API group because browser websocket clients cannot set an
// Authorization header; the token travels in the query string instead and
// is verified here.
func (h *CollabHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/stories/:story_id/collab", h.serveCollab)
}

func (h *CollabHandler) serveCollab(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}

	storyID, ok := parseUUIDParam(c, "story_id")
	if !ok {
		return
	}

	// Joining a room requires the same visibility as reading the story.
	if _, err := h.stories.GetStory(c.Request.Context(), claims.UserID, storyID); err != nil {
		handleServiceError(c, err)
		return
	}

	conn, err := collabUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &collabClient{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, collabSendBuffer),
		storyID: storyID.String(),
		userID:  claims.UserID.String(),
		logger:  h.logger,
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// authenticate accepts the access token from the token query parameter or a
// Bearer header. API keys are not valid here; collaboration always acts as a
// concrete user session.
func (h *CollabHandler) authenticate(c *gin.Context) (*models.Claims, bool) {
	token := c.Query("token")
	if token == "" {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    models.ErrCodeTokenInvalid,
			Message: "Missing access token",
		})
		return nil, false
	}

	claims, err := h.authService.VerifyAccessToken(c.Request.Context(), token)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return claims, true
}
