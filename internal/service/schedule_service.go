package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fictures-server/internal/database"
	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// ScheduleService manages deferred chapter publications. A schedule holds a
// draft chapter until its publish time; the scheduler loop then claims it
// and publishes the chapter.
//
//go:generate mockery --name ScheduleService --output ../mocks --outpkg mocks --case=underscore
type ScheduleService interface {
	// CreateSchedule defers publication of an owned draft chapter to a
	// future time and marks the chapter scheduled.
	CreateSchedule(ctx context.Context, ownerID, chapterID uuid.UUID, publishAt time.Time) (*models.PublishSchedule, error)

	// GetSchedule returns one of the owner's schedules.
	GetSchedule(ctx context.Context, ownerID, scheduleID uuid.UUID) (*models.PublishSchedule, error)

	// ListMySchedules returns the owner's schedules, soonest first.
	ListMySchedules(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.PublishSchedule, error)

	// Reschedule moves a pending schedule to a new future time.
	Reschedule(ctx context.Context, ownerID, scheduleID uuid.UUID, publishAt time.Time) (*models.PublishSchedule, error)

	// CancelSchedule cancels a pending schedule and returns its chapter to
	// draft.
	CancelSchedule(ctx context.Context, ownerID, scheduleID uuid.UUID) error
}

// Compile-time check to ensure scheduleServiceImpl implements ScheduleService
var _ ScheduleService = (*scheduleServiceImpl)(nil)

type scheduleServiceImpl struct {
	db           interfaces.DB
	storyRepo    interfaces.StoryRepository
	chapterRepo  interfaces.ChapterRepository
	scheduleRepo interfaces.ScheduleRepository
	logger       *zap.Logger
}

// NewScheduleService creates a new instance of scheduleServiceImpl.
func NewScheduleService(
	db interfaces.DB,
	storyRepo interfaces.StoryRepository,
	chapterRepo interfaces.ChapterRepository,
	scheduleRepo interfaces.ScheduleRepository,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleServiceImpl{
		db:           db,
		storyRepo:    storyRepo,
		chapterRepo:  chapterRepo,
		scheduleRepo: scheduleRepo,
		logger:       logger.Named("ScheduleService"),
	}
}

func (s *scheduleServiceImpl) CreateSchedule(ctx context.Context, ownerID, chapterID uuid.UUID, publishAt time.Time) (*models.PublishSchedule, error) {
	if !publishAt.After(time.Now()) {
		return nil, models.ErrScheduleInPast
	}

	schedule := &models.PublishSchedule{
		ChapterID: chapterID,
		UserID:    ownerID,
		PublishAt: publishAt.UTC(),
	}
	// Schedule row and chapter status move together or not at all.
	err := database.ExecuteInTransaction(ctx, s.db, func(tx pgx.Tx) error {
		chapter, err := s.chapterRepo.GetByID(ctx, tx, chapterID)
		if err != nil {
			return err
		}
		story, err := s.storyRepo.GetByID(ctx, tx, chapter.StoryID)
		if err != nil {
			return err
		}
		if story.OwnerID != ownerID {
			return models.ErrChapterNotFound
		}
		if chapter.Status != models.ChapterStatusDraft {
			return models.ErrChapterNotSchedulable
		}
		schedule.StoryID = chapter.StoryID

		if err := s.scheduleRepo.Create(ctx, tx, schedule); err != nil {
			return err
		}
		return s.chapterRepo.SetStatus(ctx, tx, chapterID, models.ChapterStatusScheduled, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Chapter publication scheduled",
		zap.String("scheduleID", schedule.ID.String()),
		zap.String("chapterID", chapterID.String()),
		zap.Time("publishAt", schedule.PublishAt))
	return schedule, nil
}

func (s *scheduleServiceImpl) GetSchedule(ctx context.Context, ownerID, scheduleID uuid.UUID) (*models.PublishSchedule, error) {
	return s.getOwnedSchedule(ctx, s.db, ownerID, scheduleID)
}

func (s *scheduleServiceImpl) ListMySchedules(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.PublishSchedule, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return s.scheduleRepo.ListByUser(ctx, s.db, ownerID, limit, offset)
}

func (s *scheduleServiceImpl) Reschedule(ctx context.Context, ownerID, scheduleID uuid.UUID, publishAt time.Time) (*models.PublishSchedule, error) {
	if !publishAt.After(time.Now()) {
		return nil, models.ErrScheduleInPast
	}
	if _, err := s.getOwnedSchedule(ctx, s.db, ownerID, scheduleID); err != nil {
		return nil, err
	}
	if err := s.scheduleRepo.UpdatePublishAt(ctx, s.db, scheduleID, publishAt.UTC()); err != nil {
		return nil, err
	}
	return s.scheduleRepo.GetByID(ctx, s.db, scheduleID)
}

func (s *scheduleServiceImpl) CancelSchedule(ctx context.Context, ownerID, scheduleID uuid.UUID) error {
	err := database.ExecuteInTransaction(ctx, s.db, func(tx pgx.Tx) error {
		schedule, err := s.getOwnedSchedule(ctx, tx, ownerID, scheduleID)
		if err != nil {
			return err
		}
		if schedule.Status != models.ScheduleStatusPending {
			return models.ErrScheduleNotPending
		}
		if err := s.scheduleRepo.SetStatus(ctx, tx, scheduleID, models.ScheduleStatusCanceled, ""); err != nil {
			return err
		}
		// The chapter goes back to draft only if the scheduler has not
		// published it in the meantime.
		chapter, err := s.chapterRepo.GetByID(ctx, tx, schedule.ChapterID)
		if err != nil {
			return err
		}
		if chapter.Status == models.ChapterStatusScheduled {
			return s.chapterRepo.SetStatus(ctx, tx, schedule.ChapterID, models.ChapterStatusDraft, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Schedule canceled", zap.String("scheduleID", scheduleID.String()))
	return nil
}

func (s *scheduleServiceImpl) getOwnedSchedule(ctx context.Context, querier interfaces.DBTX, ownerID, scheduleID uuid.UUID) (*models.PublishSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, querier, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.UserID != ownerID {
		return nil, models.ErrScheduleNotFound
	}
	return schedule, nil
}
