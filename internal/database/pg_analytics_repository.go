package database

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgAnalyticsRepository implements AnalyticsRepository
var _ interfaces.AnalyticsRepository = (*pgAnalyticsRepository)(nil)

type pgAnalyticsRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgAnalyticsRepository creates a new PostgreSQL-backed AnalyticsRepository.
func NewPgAnalyticsRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.AnalyticsRepository {
	return &pgAnalyticsRepository{
		db:     db,
		logger: logger.Named("PgAnalyticsRepo"),
	}
}

// Record appends one event to the log.
func (r *pgAnalyticsRepository) Record(ctx context.Context, event *models.AnalyticsEvent) error {
	if len(event.Payload) == 0 {
		event.Payload = []byte(`{}`)
	}
	query := `INSERT INTO analytics_events (user_id, story_id, chapter_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		event.UserID, event.StoryID, event.ChapterID, event.EventType, event.Payload,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to record analytics event", zap.Error(err), zap.String("eventType", event.EventType))
		return fmt.Errorf("failed to record analytics event: %w", err)
	}
	return nil
}

// StorySummary aggregates the dashboard counters for a story.
func (r *pgAnalyticsRepository) StorySummary(ctx context.Context, storyID uuid.UUID) (*models.StoryAnalyticsSummary, error) {
	query := `SELECT
		$1::uuid AS story_id,
		COALESCE((SELECT COUNT(*) FROM analytics_events WHERE story_id = $1 AND event_type = $2), 0) AS views,
		COALESCE((SELECT COUNT(*) FROM analytics_events WHERE story_id = $1 AND event_type = $3), 0) AS chapter_reads,
		COALESCE((SELECT COUNT(*) FROM analytics_events WHERE story_id = $1 AND event_type = $4), 0) AS completions,
		COALESCE((SELECT COUNT(*) FROM story_likes WHERE story_id = $1), 0) AS likes,
		COALESCE((SELECT COUNT(*) FROM comments WHERE story_id = $1 AND is_deleted = FALSE), 0) AS comments`
	summary := &models.StoryAnalyticsSummary{}
	err := r.db.QueryRow(ctx, query,
		storyID, models.EventStoryView, models.EventChapterRead, models.EventStoryCompleted,
	).Scan(
		&summary.StoryID, &summary.Views, &summary.ChapterReads,
		&summary.Completions, &summary.Likes, &summary.Comments,
	)
	if err != nil {
		r.logger.Error("Failed to build story analytics summary", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to build story analytics summary: %w", err)
	}
	return summary, nil
}

// CountByDay buckets events of one type for a story by day over [from, to).
func (r *pgAnalyticsRepository) CountByDay(ctx context.Context, storyID uuid.UUID, eventType string, from, to time.Time) ([]models.EventCount, error) {
	query := `SELECT date_trunc('day', created_at) AS day, COUNT(*) AS count
		FROM analytics_events
		WHERE story_id = $1 AND event_type = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY day
		ORDER BY day`
	counts := []models.EventCount{}
	if err := pgxscan.Select(ctx, r.db, &counts, query, storyID, eventType, from, to); err != nil {
		r.logger.Error("Failed to count events by day", zap.Error(err),
			zap.String("storyID", storyID.String()), zap.String("eventType", eventType))
		return nil, fmt.Errorf("failed to count events by day: %w", err)
	}
	return counts, nil
}
