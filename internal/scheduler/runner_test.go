package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"fictures-server/internal/config"
	"fictures-server/internal/interfaces"
	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
)

// fakeTx covers the commit and rollback calls the transaction helper makes.
// Repositories are mocked, so no other pgx.Tx method is ever reached.
type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rollbacks++; return nil }

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	return db.tx, nil
}

type chapterPublisherMock struct {
	mock.Mock
}

func (m *chapterPublisherMock) PublishChapterTx(ctx context.Context, querier interfaces.DBTX, chapterID uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, querier, chapterID)
	var chapter *models.Chapter
	if v := args.Get(0); v != nil {
		chapter = v.(*models.Chapter)
	}
	return chapter, args.Error(1)
}

type runnerMocks struct {
	db        *fakeDB
	schedules *mocks.ScheduleRepository
	stories   *chapterPublisherMock
	events    *mocks.EventPublisher
}

func newTestRunner(t *testing.T) (*Runner, *runnerMocks) {
	t.Helper()
	m := &runnerMocks{
		db:        &fakeDB{tx: &fakeTx{}},
		schedules: new(mocks.ScheduleRepository),
		stories:   new(chapterPublisherMock),
		events:    new(mocks.EventPublisher),
	}
	cfg := &config.Config{SchedulerInterval: time.Hour, SchedulerBatchSize: 5}
	return NewRunner(m.db, m.schedules, m.stories, m.events, cfg, zap.NewNop()), m
}

func dueSchedule(chapterID uuid.UUID) models.PublishSchedule {
	return models.PublishSchedule{
		ID:        uuid.New(),
		StoryID:   uuid.New(),
		ChapterID: chapterID,
		UserID:    uuid.New(),
		PublishAt: time.Now().Add(-time.Minute).UTC(),
		Status:    models.ScheduleStatusPending,
	}
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("Publishes due schedules and emits events", func(t *testing.T) {
		r, m := newTestRunner(t)
		first := dueSchedule(uuid.New())
		second := dueSchedule(uuid.New())

		m.schedules.On("ClaimDue", ctx, mock.Anything, mock.AnythingOfType("time.Time"), 5).
			Return([]models.PublishSchedule{first, second}, nil).Once()
		m.stories.On("PublishChapterTx", ctx, mock.Anything, first.ChapterID).
			Return(&models.Chapter{ID: first.ChapterID, StoryID: first.StoryID, Title: "The Foundry"}, nil).Once()
		m.stories.On("PublishChapterTx", ctx, mock.Anything, second.ChapterID).
			Return(&models.Chapter{ID: second.ChapterID, StoryID: second.StoryID, Title: "The Tideworks"}, nil).Once()
		m.schedules.On("SetStatus", ctx, mock.Anything, first.ID, models.ScheduleStatusPublished, "").Return(nil).Once()
		m.schedules.On("SetStatus", ctx, mock.Anything, second.ID, models.ScheduleStatusPublished, "").Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeChapterPublished,
			mock.MatchedBy(func(e models.ChapterPublishedEvent) bool {
				return e.ChapterID == first.ChapterID.String() && e.Title == "The Foundry" && e.Scheduled
			})).Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeChapterPublished,
			mock.MatchedBy(func(e models.ChapterPublishedEvent) bool {
				return e.ChapterID == second.ChapterID.String() && e.Scheduled
			})).Return(nil).Once()

		r.runOnce(ctx)

		m.schedules.AssertExpectations(t)
		m.stories.AssertExpectations(t)
		m.events.AssertExpectations(t)
		assert.Equal(t, 1, m.db.tx.commits)
		assert.Zero(t, m.db.tx.rollbacks)
	})

	t.Run("Manual publication closes the schedule without an event", func(t *testing.T) {
		r, m := newTestRunner(t)
		schedule := dueSchedule(uuid.New())

		m.schedules.On("ClaimDue", ctx, mock.Anything, mock.AnythingOfType("time.Time"), 5).
			Return([]models.PublishSchedule{schedule}, nil).Once()
		m.stories.On("PublishChapterTx", ctx, mock.Anything, schedule.ChapterID).
			Return(nil, models.ErrAlreadyPublished).Once()
		m.schedules.On("SetStatus", ctx, mock.Anything, schedule.ID, models.ScheduleStatusPublished, "").Return(nil).Once()

		r.runOnce(ctx)

		m.schedules.AssertExpectations(t)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1, m.db.tx.commits)
	})

	t.Run("Vanished chapter marks the schedule failed", func(t *testing.T) {
		r, m := newTestRunner(t)
		schedule := dueSchedule(uuid.New())

		m.schedules.On("ClaimDue", ctx, mock.Anything, mock.AnythingOfType("time.Time"), 5).
			Return([]models.PublishSchedule{schedule}, nil).Once()
		m.stories.On("PublishChapterTx", ctx, mock.Anything, schedule.ChapterID).
			Return(nil, models.ErrChapterNotFound).Once()
		m.schedules.On("SetStatus", ctx, mock.Anything, schedule.ID, models.ScheduleStatusFailed,
			models.ErrChapterNotFound.Error()).Return(nil).Once()

		r.runOnce(ctx)

		m.schedules.AssertExpectations(t)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1, m.db.tx.commits)
	})

	t.Run("Transient failure rolls the batch back", func(t *testing.T) {
		r, m := newTestRunner(t)
		schedule := dueSchedule(uuid.New())

		m.schedules.On("ClaimDue", ctx, mock.Anything, mock.AnythingOfType("time.Time"), 5).
			Return([]models.PublishSchedule{schedule}, nil).Once()
		m.stories.On("PublishChapterTx", ctx, mock.Anything, schedule.ChapterID).
			Return(nil, errors.New("connection reset")).Once()

		r.runOnce(ctx)

		m.schedules.AssertNotCalled(t, "SetStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, m.db.tx.commits)
		assert.Equal(t, 1, m.db.tx.rollbacks)
	})

	t.Run("Empty batch commits and publishes nothing", func(t *testing.T) {
		r, m := newTestRunner(t)

		m.schedules.On("ClaimDue", ctx, mock.Anything, mock.AnythingOfType("time.Time"), 5).
			Return([]models.PublishSchedule{}, nil).Once()

		r.runOnce(ctx)

		m.stories.AssertNotCalled(t, "PublishChapterTx", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1, m.db.tx.commits)
	})

	t.Run("Begin failure skips the batch", func(t *testing.T) {
		r, m := newTestRunner(t)
		m.db.beginErr = errors.New("pool exhausted")

		r.runOnce(ctx)

		m.schedules.AssertNotCalled(t, "ClaimDue",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Event failure does not disturb the published row", func(t *testing.T) {
		r, m := newTestRunner(t)
		schedule := dueSchedule(uuid.New())

		m.schedules.On("ClaimDue", ctx, mock.Anything, mock.AnythingOfType("time.Time"), 5).
			Return([]models.PublishSchedule{schedule}, nil).Once()
		m.stories.On("PublishChapterTx", ctx, mock.Anything, schedule.ChapterID).
			Return(&models.Chapter{ID: schedule.ChapterID, StoryID: schedule.StoryID, Title: "The Foundry"}, nil).Once()
		m.schedules.On("SetStatus", ctx, mock.Anything, schedule.ID, models.ScheduleStatusPublished, "").Return(nil).Once()
		m.events.On("Publish", ctx, models.EventTypeChapterPublished, mock.Anything).
			Return(errors.New("broker down")).Once()

		r.runOnce(ctx)

		m.schedules.AssertExpectations(t)
		m.events.AssertExpectations(t)
		assert.Equal(t, 1, m.db.tx.commits)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	r, m := newTestRunner(t)
	r.interval = 5 * time.Millisecond

	m.schedules.On("ClaimDue", mock.Anything, mock.Anything, mock.AnythingOfType("time.Time"), 5).
		Return([]models.PublishSchedule{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	m.schedules.AssertCalled(t, "ClaimDue",
		mock.Anything, mock.Anything, mock.AnythingOfType("time.Time"), 5)
}
