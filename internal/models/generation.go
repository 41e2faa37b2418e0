package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationKind selects what a queued generation task produces.
type GenerationKind string

const (
	GenerationKindSceneDraft GenerationKind = "scene_draft"
	GenerationKindSceneImage GenerationKind = "scene_image"
	GenerationKindCoverImage GenerationKind = "cover_image"
)

// IsValidGenerationKind reports whether the kind is a known generation kind.
func IsValidGenerationKind(k GenerationKind) bool {
	switch k {
	case GenerationKindSceneDraft, GenerationKindSceneImage, GenerationKindCoverImage:
		return true
	default:
		return false
	}
}

// PlaceholderModel marks results that fell back to the static placeholder
// image instead of a generated one.
const PlaceholderModel = "placeholder"

// GenerationStatus is the lifecycle state of an async generation task.
type GenerationStatus string

const (
	GenerationStatusPending   GenerationStatus = "pending"
	GenerationStatusCompleted GenerationStatus = "completed"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// GenerationResult stores the output and metadata of an AI generation task.
type GenerationResult struct {
	ID               string           `db:"id" json:"id"`
	UserID           uuid.UUID        `db:"user_id" json:"user_id"`
	StoryID          *uuid.UUID       `db:"story_id" json:"story_id,omitempty"`
	Kind             GenerationKind   `db:"kind" json:"kind"`
	Status           GenerationStatus `db:"status" json:"status"`
	GeneratedText    string           `db:"generated_text" json:"generated_text,omitempty"`
	ImageURL         string           `db:"image_url" json:"image_url,omitempty"`
	Model            string           `db:"model" json:"model,omitempty"`
	PromptTokens     int              `db:"prompt_tokens" json:"prompt_tokens,omitempty"`
	CompletionTokens int              `db:"completion_tokens" json:"completion_tokens,omitempty"`
	ErrorDetails     string           `db:"error_details" json:"error_details,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// GenerationTaskPayload is the message queued for the generation worker.
type GenerationTaskPayload struct {
	TaskID  string         `json:"task_id"`
	UserID  uuid.UUID      `json:"user_id"`
	StoryID *uuid.UUID     `json:"story_id,omitempty"`
	Kind    GenerationKind `json:"kind"`
	Prompt  string         `json:"prompt"`

	// Text parameters, used when Kind is scene_draft.
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`

	// Image parameters, used for the image kinds.
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}
