package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoryKind distinguishes prose stories from comics.
type StoryKind string

const (
	StoryKindNovel StoryKind = "novel"
	StoryKindComic StoryKind = "comic"
)

// IsValidStoryKind reports whether the kind is a known story kind.
func IsValidStoryKind(k StoryKind) bool {
	return k == StoryKindNovel || k == StoryKindComic
}

// StoryStatus is the lifecycle state of a story.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"
	StoryStatusPublished StoryStatus = "published"
	StoryStatusArchived  StoryStatus = "archived"
)

// ChapterStatus is the lifecycle state of a chapter.
type ChapterStatus string

const (
	ChapterStatusDraft     ChapterStatus = "draft"
	ChapterStatusScheduled ChapterStatus = "scheduled"
	ChapterStatusPublished ChapterStatus = "published"
)

// Story is the root content entity. Parts, chapters, characters and places
// all hang off a story and cascade with it.
type Story struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	OwnerID       uuid.UUID   `db:"owner_id" json:"owner_id"`
	Title         string      `db:"title" json:"title"`
	Slug          string      `db:"slug" json:"slug"`
	Summary       string      `db:"summary" json:"summary"`
	Genre         string      `db:"genre" json:"genre"`
	Kind          StoryKind   `db:"kind" json:"kind"`
	Status        StoryStatus `db:"status" json:"status"`
	CoverImageURL string      `db:"cover_image_url" json:"cover_image_url,omitempty"`
	PublishedAt   *time.Time  `db:"published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// StoryPart groups chapters into named arcs or volumes.
type StoryPart struct {
	ID       uuid.UUID `db:"id" json:"id"`
	StoryID  uuid.UUID `db:"story_id" json:"story_id"`
	Title    string    `db:"title" json:"title"`
	Position int       `db:"position" json:"position"`
}

// Chapter is an ordered unit of a story, optionally inside a part.
type Chapter struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	StoryID     uuid.UUID     `db:"story_id" json:"story_id"`
	PartID      *uuid.UUID    `db:"part_id" json:"part_id,omitempty"`
	Title       string        `db:"title" json:"title"`
	Synopsis    string        `db:"synopsis" json:"synopsis,omitempty"`
	Position    int           `db:"position" json:"position"`
	Status      ChapterStatus `db:"status" json:"status"`
	PublishedAt *time.Time    `db:"published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Scene is the smallest content unit: a text passage for novels, a panel
// with its illustration for comics.
type Scene struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ChapterID   uuid.UUID `db:"chapter_id" json:"chapter_id"`
	Position    int       `db:"position" json:"position"`
	Title       string    `db:"title" json:"title,omitempty"`
	Content     string    `db:"content" json:"content"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	ImagePrompt string    `db:"image_prompt" json:"image_prompt,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Character belongs to a story's world book.
type Character struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	StoryID     uuid.UUID       `db:"story_id" json:"story_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	PortraitURL string          `db:"portrait_url" json:"portrait_url,omitempty"`
	Traits      json.RawMessage `db:"traits" json:"traits,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Place is a setting in a story's world book.
type Place struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StoryID     uuid.UUID `db:"story_id" json:"story_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StoryWithStats decorates a story with community counters for feed views.
type StoryWithStats struct {
	Story
	AuthorName   string `db:"author_name" json:"author_name"`
	LikeCount    int    `db:"like_count" json:"like_count"`
	CommentCount int    `db:"comment_count" json:"comment_count"`
	ChapterCount int    `db:"chapter_count" json:"chapter_count"`
}
