// Package handler exposes the HTTP API: authentication, story and world
// content, community features, analytics, schedules, API keys and AI
// generation, plus the SSE event stream and the collaboration websocket.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"fictures-server/internal/middleware"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 100
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// AuthHandler serves registration, sessions, the profile endpoints, user
// settings and the admin moderation endpoints.
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.Named("AuthHandler"),
	}
}

// RegisterPublicRoutes mounts the unauthenticated session endpoints.
// Logout still runs through requireAuth because it revokes the caller's
// own tokens.
func (h *AuthHandler) RegisterPublicRoutes(authGroup *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/refresh", h.refresh)
	authGroup.POST("/logout", requireAuth, middleware.RequireSession(), h.logout)
}

// RegisterRoutes mounts the authenticated profile, settings and admin
// endpoints onto the API group.
func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/me", h.getMe)
	api.PUT("/me", h.updateMe)

	settings := api.Group("/settings")
	{
		settings.GET("/preferences", h.getPreferences)
		settings.PUT("/preferences", h.updatePreferences)
		settings.POST("/password", middleware.RequireSession(), h.changePassword)
	}

	admin := api.Group("/admin", middleware.RequireScope(models.ScopeAdminAll))
	{
		admin.POST("/users/:user_id/ban", h.banUser)
		admin.DELETE("/users/:user_id/ban", h.unbanUser)
	}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	if len(req.Username) < minUsernameLength || len(req.Username) > maxUsernameLength {
		badRequest(c, fmt.Sprintf("Username length must be between %d and %d characters", minUsernameLength, maxUsernameLength))
		return
	}
	if !usernameRegex.MatchString(req.Username) {
		badRequest(c, "Username can only contain letters, numbers, underscores, and hyphens")
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		badRequest(c, msg)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.DisplayName)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"id":           user.ID.String(),
		"username":     user.Username,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		loginsTotal.WithLabelValues("failure").Inc()
		handleServiceError(c, err)
		return
	}
	loginsTotal.WithLabelValues("success").Inc()

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	refreshesTotal.Inc()

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) logout(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	if principal == nil || principal.AccessUUID == "" {
		h.logger.Error("Principal missing during logout")
		handleServiceError(c, models.ErrInternalServer)
		return
	}

	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing or invalid refresh_token in request body: "+err.Error())
		return
	}

	// The refresh token only needs to surrender its jti here; revocation is
	// keyed on the UUID pair, not on the signature.
	token, _, err := new(jwt.Parser).ParseUnverified(req.RefreshToken, &models.Claims{})
	if err != nil {
		handleServiceError(c, models.ErrTokenMalformed)
		return
	}
	claims, ok := token.Claims.(*models.Claims)
	if !ok || claims.ID == "" {
		handleServiceError(c, models.ErrTokenMalformed)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal.UserID, principal.AccessUUID, claims.ID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) getMe(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	user, err := h.authService.GetProfile(c.Request.Context(), principal.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) updateMe(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.DisplayName == nil && req.Email == nil {
		badRequest(c, "Nothing to update")
		return
	}

	if err := h.authService.UpdateProfile(c.Request.Context(), principal.UserID, req.DisplayName, req.Email); err != nil {
		handleServiceError(c, err)
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), principal.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) getPreferences(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	prefs, err := h.authService.GetPreferences(c.Request.Context(), principal.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", prefs)
}

func (h *AuthHandler) updatePreferences(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var prefs json.RawMessage
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, "Preferences must be a JSON object: "+err.Error())
		return
	}

	if err := h.authService.UpdatePreferences(c.Request.Context(), principal.UserID, prefs); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "updated"})
}

func (h *AuthHandler) changePassword(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		badRequest(c, msg)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}

	// Every session died with the old password, including this one.
	c.JSON(http.StatusOK, gin.H{"message": "Password changed, please log in again"})
}

func (h *AuthHandler) banUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}
	if err := h.authService.BanUser(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("User banned", zap.String("userID", userID.String()))
	c.JSON(http.StatusOK, models.StatusResponse{Status: "banned"})
}

func (h *AuthHandler) unbanUser(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}
	if err := h.authService.UnbanUser(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("User unbanned", zap.String("userID", userID.String()))
	c.JSON(http.StatusOK, models.StatusResponse{Status: "unbanned"})
}

func validatePassword(password string) string {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Sprintf("Password length must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			break
		}
	}
	if !hasLetter || !hasDigit {
		return "Password must contain at least one letter and one digit"
	}
	return ""
}
