package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type storyRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Summary       string `json:"summary"`
	Genre         string `json:"genre"`
	Kind          string `json:"kind"`
	CoverImageURL string `json:"cover_image_url"`
}

type partRequest struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type chapterRequest struct {
	Title    string     `json:"title"`
	Synopsis string     `json:"synopsis"`
	PartID   *uuid.UUID `json:"part_id,omitempty"`
	Position int        `json:"position"`
}

type sceneRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url"`
	ImagePrompt string `json:"image_prompt"`
	Position    int    `json:"position"`
}

type characterRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PortraitURL string          `json:"portrait_url"`
	Traits      json.RawMessage `json:"traits,omitempty"`
}

type placeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type createCommentRequest struct {
	Body      string     `json:"body" binding:"required"`
	ChapterID *uuid.UUID `json:"chapter_id,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
}

type voteCommentRequest struct {
	Vote int16 `json:"vote" binding:"gte=-1,lte=1"`
}

type recordEventRequest struct {
	EventType string          `json:"event_type" binding:"required"`
	StoryID   *uuid.UUID      `json:"story_id,omitempty"`
	ChapterID *uuid.UUID      `json:"chapter_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type createScheduleRequest struct {
	ChapterID uuid.UUID `json:"chapter_id" binding:"required"`
	PublishAt time.Time `json:"publish_at" binding:"required"`
}

type rescheduleRequest struct {
	PublishAt time.Time `json:"publish_at" binding:"required"`
}

type createAPIKeyRequest struct {
	Name      string     `json:"name" binding:"required"`
	Scopes    []string   `json:"scopes" binding:"required,min=1,dive,scope"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type enqueueGenerationRequest struct {
	Kind           string     `json:"kind" binding:"required"`
	Prompt         string     `json:"prompt" binding:"required"`
	StoryID        *uuid.UUID `json:"story_id,omitempty"`
	MaxTokens      int        `json:"max_tokens,omitempty"`
	Temperature    float32    `json:"temperature,omitempty"`
	NegativePrompt string     `json:"negative_prompt,omitempty"`
	Width          int        `json:"width,omitempty"`
	Height         int        `json:"height,omitempty"`
}

// listResponse is the envelope for offset-paginated collections.
type listResponse struct {
	Data   any `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// parsePagination reads limit and offset query parameters, clamping the
// limit to a sane page size.
func parsePagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
