package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Standard analytics event types. Clients may send additional custom types;
// the server stores them as-is.
const (
	EventStoryView           = "story_view"
	EventChapterRead         = "chapter_read"
	EventSceneView           = "scene_view"
	EventStoryCompleted      = "story_completed"
	EventGenerationRequested = "generation_requested"
)

// AnalyticsEvent is a single append-only usage record.
type AnalyticsEvent struct {
	ID        int64           `db:"id" json:"id"`
	UserID    *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	StoryID   *uuid.UUID      `db:"story_id" json:"story_id,omitempty"`
	ChapterID *uuid.UUID      `db:"chapter_id" json:"chapter_id,omitempty"`
	EventType string          `db:"event_type" json:"event_type"`
	Payload   json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// StoryAnalyticsSummary aggregates the counters shown on a story dashboard.
type StoryAnalyticsSummary struct {
	StoryID      uuid.UUID `db:"story_id" json:"story_id"`
	Views        int64     `db:"views" json:"views"`
	ChapterReads int64     `db:"chapter_reads" json:"chapter_reads"`
	Completions  int64     `db:"completions" json:"completions"`
	Likes        int64     `db:"likes" json:"likes"`
	Comments     int64     `db:"comments" json:"comments"`
}

// EventCount is one day bucket of a time series.
type EventCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int64     `db:"count" json:"count"`
}
