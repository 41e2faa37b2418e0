package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus is the lifecycle state of a publish schedule.
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending"
	ScheduleStatusPublished ScheduleStatus = "published"
	ScheduleStatusCanceled  ScheduleStatus = "canceled"
	ScheduleStatusFailed    ScheduleStatus = "failed"
)

// PublishSchedule defers a chapter publication to a fixed point in time.
// The scheduler claims due pending rows and publishes their chapters.
type PublishSchedule struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	StoryID       uuid.UUID      `db:"story_id" json:"story_id"`
	ChapterID     uuid.UUID      `db:"chapter_id" json:"chapter_id"`
	UserID        uuid.UUID      `db:"user_id" json:"user_id"`
	PublishAt     time.Time      `db:"publish_at" json:"publish_at"`
	Status        ScheduleStatus `db:"status" json:"status"`
	FailureReason string         `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}
