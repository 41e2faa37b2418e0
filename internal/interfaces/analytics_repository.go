package interfaces

import (
	"context"
	"time"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// AnalyticsRepository defines the interface for the append-only event log.
//
//go:generate mockery --name AnalyticsRepository --output ../mocks --outpkg mocks --case=underscore
type AnalyticsRepository interface {
	// Record appends one event.
	Record(ctx context.Context, event *models.AnalyticsEvent) error

	// StorySummary aggregates the dashboard counters for a story.
	StorySummary(ctx context.Context, storyID uuid.UUID) (*models.StoryAnalyticsSummary, error)

	// CountByDay buckets events of one type for a story by day over
	// [from, to).
	CountByDay(ctx context.Context, storyID uuid.UUID, eventType string, from, to time.Time) ([]models.EventCount, error)
}
