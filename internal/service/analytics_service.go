package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// analyticsDefaultWindow bounds the time-series query when the caller gives
// no explicit range.
const analyticsDefaultWindow = 30 * 24 * time.Hour

// AnalyticsService records usage events and serves the story dashboard.
// Recording is fire-and-forget at call sites; dashboards are owner-only.
//
//go:generate mockery --name AnalyticsService --output ../mocks --outpkg mocks --case=underscore
type AnalyticsService interface {
	// Record appends one usage event.
	Record(ctx context.Context, event *models.AnalyticsEvent) error

	// StorySummary returns the aggregate counters for an owned story.
	StorySummary(ctx context.Context, ownerID, storyID uuid.UUID) (*models.StoryAnalyticsSummary, error)

	// EventCounts returns a per-day time series of one event type for an
	// owned story. Zero from/to default to the last 30 days.
	EventCounts(ctx context.Context, ownerID, storyID uuid.UUID, eventType string, from, to time.Time) ([]models.EventCount, error)
}

// Compile-time check to ensure analyticsServiceImpl implements AnalyticsService
var _ AnalyticsService = (*analyticsServiceImpl)(nil)

type analyticsServiceImpl struct {
	db            interfaces.DBTX
	storyRepo     interfaces.StoryRepository
	analyticsRepo interfaces.AnalyticsRepository
	logger        *zap.Logger
}

// NewAnalyticsService creates a new instance of analyticsServiceImpl.
func NewAnalyticsService(
	db interfaces.DBTX,
	storyRepo interfaces.StoryRepository,
	analyticsRepo interfaces.AnalyticsRepository,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsServiceImpl{
		db:            db,
		storyRepo:     storyRepo,
		analyticsRepo: analyticsRepo,
		logger:        logger.Named("AnalyticsService"),
	}
}

func (s *analyticsServiceImpl) Record(ctx context.Context, event *models.AnalyticsEvent) error {
	event.EventType = strings.TrimSpace(event.EventType)
	if event.EventType == "" {
		return fmt.Errorf("event type is required: %w", models.ErrInvalidInput)
	}
	if err := s.analyticsRepo.Record(ctx, event); err != nil {
		return err
	}
	s.logger.Debug("Analytics event recorded",
		zap.String("eventType", event.EventType),
		zap.Int64("eventID", event.ID))
	return nil
}

func (s *analyticsServiceImpl) StorySummary(ctx context.Context, ownerID, storyID uuid.UUID) (*models.StoryAnalyticsSummary, error) {
	if err := s.checkOwner(ctx, ownerID, storyID); err != nil {
		return nil, err
	}
	return s.analyticsRepo.StorySummary(ctx, storyID)
}

func (s *analyticsServiceImpl) EventCounts(ctx context.Context, ownerID, storyID uuid.UUID, eventType string, from, to time.Time) ([]models.EventCount, error) {
	if err := s.checkOwner(ctx, ownerID, storyID); err != nil {
		return nil, err
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return nil, fmt.Errorf("event type is required: %w", models.ErrInvalidInput)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-analyticsDefaultWindow)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("from must precede to: %w", models.ErrInvalidInput)
	}
	return s.analyticsRepo.CountByDay(ctx, storyID, eventType, from, to)
}

func (s *analyticsServiceImpl) checkOwner(ctx context.Context, ownerID, storyID uuid.UUID) error {
	story, err := s.storyRepo.GetByID(ctx, s.db, storyID)
	if err != nil {
		return err
	}
	if story.OwnerID != ownerID {
		return models.ErrStoryNotFound
	}
	return nil
}
