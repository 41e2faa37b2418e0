package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

// handleServiceError translates service errors into HTTP responses. Every
// handler funnels its service errors through here so a given sentinel maps
// to the same status and code everywhere.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeWrongCredentials, Message: "Invalid email or password"}
	case errors.Is(err, models.ErrUserAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeDuplicateUser, Message: "Username already exists"}
	case errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeDuplicateEmail, Message: "Email already exists"}
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeUserNotFound, Message: "User not found"}
	case errors.Is(err, models.ErrUserBanned):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeUserBanned, Message: "User is banned"}

	case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or malformed"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenNotFound):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Provided token is invalid (possibly revoked or expired)"}

	case errors.Is(err, models.ErrAPIKeyNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "API key not found"}
	case errors.Is(err, models.ErrAPIKeyInvalid), errors.Is(err, models.ErrAPIKeyExpired), errors.Is(err, models.ErrAPIKeyRevoked):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeAPIKeyInvalid, Message: "API key is invalid"}
	case errors.Is(err, models.ErrScopeMissing):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeScopeMissing, Message: "Missing required scope"}

	case errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrPartNotFound),
		errors.Is(err, models.ErrChapterNotFound),
		errors.Is(err, models.ErrSceneNotFound),
		errors.Is(err, models.ErrCharacterNotFound),
		errors.Is(err, models.ErrPlaceNotFound),
		errors.Is(err, models.ErrCommentNotFound),
		errors.Is(err, models.ErrScheduleNotFound),
		errors.Is(err, models.ErrGenerationNotFound),
		errors.Is(err, models.ErrLikeNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}

	case errors.Is(err, models.ErrStorySlugTaken),
		errors.Is(err, models.ErrStoryNotPublished),
		errors.Is(err, models.ErrPositionTaken),
		errors.Is(err, models.ErrAlreadyPublished),
		errors.Is(err, models.ErrAlreadyLiked),
		errors.Is(err, models.ErrChapterNotSchedulable),
		errors.Is(err, models.ErrScheduleNotPending):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}

	case errors.Is(err, models.ErrReplyWrongStory), errors.Is(err, models.ErrScheduleInPast):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}

	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Forbidden"}
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Unauthorized"}

	case errors.Is(err, models.ErrProviderUnavailable), errors.Is(err, models.ErrGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeProviderFailure, Message: err.Error()}

	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}

	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

// badRequest writes a 400 for malformed request bodies and parameters.
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: message})
}

// parseUUIDParam parses a path parameter as a UUID, writing the 400 itself
// when the value is malformed.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
