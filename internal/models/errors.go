package models

import "errors"

// Application-wide standard errors
var (
	// Common resource/DB errors
	ErrNotFound = errors.New("resource not found")

	// User & authentication errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserBanned         = errors.New("user is banned")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Token errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// API key errors
	ErrAPIKeyNotFound = errors.New("api key not found")
	ErrAPIKeyInvalid  = errors.New("api key is invalid")
	ErrAPIKeyExpired  = errors.New("api key has expired")
	ErrAPIKeyRevoked  = errors.New("api key is revoked")
	ErrScopeMissing   = errors.New("api key lacks the required scope")

	// Story & content errors
	ErrStoryNotFound         = errors.New("story not found")
	ErrStorySlugTaken        = errors.New("story with this slug already exists")
	ErrStoryNotPublished     = errors.New("story is not published")
	ErrPartNotFound          = errors.New("story part not found")
	ErrChapterNotFound       = errors.New("chapter not found")
	ErrSceneNotFound         = errors.New("scene not found")
	ErrCharacterNotFound     = errors.New("character not found")
	ErrPlaceNotFound         = errors.New("place not found")
	ErrPositionTaken         = errors.New("position is already occupied")
	ErrAlreadyPublished      = errors.New("content is already published")
	ErrChapterNotSchedulable = errors.New("chapter cannot be scheduled in its current state")

	// Community errors
	ErrCommentNotFound = errors.New("comment not found")
	ErrAlreadyLiked    = errors.New("story is already liked by this user")
	ErrLikeNotFound    = errors.New("like not found")
	ErrReplyWrongStory = errors.New("parent comment belongs to a different story")

	// Schedule errors
	ErrScheduleNotFound   = errors.New("publish schedule not found")
	ErrScheduleNotPending = errors.New("publish schedule is no longer pending")
	ErrScheduleInPast     = errors.New("publish time must be in the future")

	// Generation errors
	ErrGenerationNotFound  = errors.New("generation task not found")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrProviderUnavailable = errors.New("generation provider is unavailable")

	// General request/server errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
