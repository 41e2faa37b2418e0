package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

func newAnalyticsService(t *testing.T) (service.AnalyticsService, *mocks.StoryRepository, *mocks.AnalyticsRepository) {
	t.Helper()
	stories := new(mocks.StoryRepository)
	analytics := new(mocks.AnalyticsRepository)
	svc := service.NewAnalyticsService(nil, stories, analytics, zap.NewNop())
	return svc, stories, analytics
}

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, _, analytics := newAnalyticsService(t)

		analytics.On("Record", ctx, mock.MatchedBy(func(e *models.AnalyticsEvent) bool {
			return e.EventType == models.EventStoryView
		})).Return(nil).Once()

		err := svc.Record(ctx, &models.AnalyticsEvent{EventType: " " + models.EventStoryView + " "})
		require.NoError(t, err)
		analytics.AssertExpectations(t)
	})

	t.Run("Blank event type", func(t *testing.T) {
		svc, _, analytics := newAnalyticsService(t)

		err := svc.Record(ctx, &models.AnalyticsEvent{EventType: "   "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		analytics.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestStorySummary(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()

	t.Run("Owner reads the dashboard", func(t *testing.T) {
		svc, stories, analytics := newAnalyticsService(t)

		stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID}, nil).Once()
		analytics.On("StorySummary", ctx, storyID).
			Return(&models.StoryAnalyticsSummary{StoryID: storyID, Views: 120, Likes: 7}, nil).Once()

		summary, err := svc.StorySummary(ctx, ownerID, storyID)
		require.NoError(t, err)
		assert.Equal(t, int64(120), summary.Views)
	})

	t.Run("Dashboards are owner-only", func(t *testing.T) {
		svc, stories, analytics := newAnalyticsService(t)

		stories.On("GetByID", ctx, mock.Anything, storyID).
			Return(&models.Story{ID: storyID, OwnerID: ownerID, Status: models.StoryStatusPublished}, nil).Once()

		_, err := svc.StorySummary(ctx, uuid.New(), storyID)
		assert.True(t, errors.Is(err, models.ErrStoryNotFound))
		analytics.AssertNotCalled(t, "StorySummary", mock.Anything, mock.Anything)
	})
}

func TestEventCounts(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	storyID := uuid.New()
	ownedStory := &models.Story{ID: storyID, OwnerID: ownerID}

	t.Run("Zero range defaults to the last 30 days", func(t *testing.T) {
		svc, stories, analytics := newAnalyticsService(t)

		stories.On("GetByID", ctx, mock.Anything, storyID).Return(ownedStory, nil).Once()
		analytics.On("CountByDay", ctx, storyID, models.EventChapterRead,
			mock.MatchedBy(func(from time.Time) bool {
				return time.Since(from) > 29*24*time.Hour && time.Since(from) < 31*24*time.Hour
			}),
			mock.MatchedBy(func(to time.Time) bool {
				return time.Since(to) < time.Minute
			}),
		).Return([]models.EventCount{}, nil).Once()

		_, err := svc.EventCounts(ctx, ownerID, storyID, models.EventChapterRead, time.Time{}, time.Time{})
		require.NoError(t, err)
		analytics.AssertExpectations(t)
	})

	t.Run("Inverted range", func(t *testing.T) {
		svc, stories, _ := newAnalyticsService(t)

		stories.On("GetByID", ctx, mock.Anything, storyID).Return(ownedStory, nil).Once()

		now := time.Now()
		_, err := svc.EventCounts(ctx, ownerID, storyID, models.EventChapterRead, now, now.Add(-time.Hour))
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("Blank event type", func(t *testing.T) {
		svc, stories, _ := newAnalyticsService(t)

		stories.On("GetByID", ctx, mock.Anything, storyID).Return(ownedStory, nil).Once()

		_, err := svc.EventCounts(ctx, ownerID, storyID, "  ", time.Time{}, time.Time{})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}
