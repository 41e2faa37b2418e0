// Package scheduler publishes chapters whose publish schedule came due.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"fictures-server/internal/config"
	"fictures-server/internal/database"
	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

var (
	schedulesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fictures_scheduler_published_total",
			Help: "Total number of chapters published by the scheduler.",
		},
	)
	schedulesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fictures_scheduler_failed_total",
			Help: "Total number of schedules marked failed by the scheduler.",
		},
	)
)

// ChapterPublisher is the slice of the story service the scheduler needs.
type ChapterPublisher interface {
	PublishChapterTx(ctx context.Context, querier interfaces.DBTX, chapterID uuid.UUID) (*models.Chapter, error)
}

// Runner claims due publish schedules and publishes their chapters. Claiming
// uses row locks that skip rows held by other instances, so several runners
// can share a database without publishing a chapter twice.
type Runner struct {
	db           database.TxBeginner
	scheduleRepo interfaces.ScheduleRepository
	stories      ChapterPublisher
	events       interfaces.EventPublisher
	interval     time.Duration
	batchSize    int
	logger       *zap.Logger
}

// NewRunner creates a new instance of Runner.
func NewRunner(
	db database.TxBeginner,
	scheduleRepo interfaces.ScheduleRepository,
	stories ChapterPublisher,
	events interfaces.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *Runner {
	interval := cfg.SchedulerInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	batchSize := cfg.SchedulerBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Runner{
		db:           db,
		scheduleRepo: scheduleRepo,
		stories:      stories,
		events:       events,
		interval:     interval,
		batchSize:    batchSize,
		logger:       logger.Named("Scheduler"),
	}
}

// Run blocks until ctx is canceled, processing one batch per tick.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Publish scheduler started",
		zap.Duration("interval", r.interval),
		zap.Int("batchSize", r.batchSize))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Publish scheduler stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// runOnce claims and publishes one batch inside a single transaction.
// Infrastructure errors roll the whole batch back; the rows stay pending and
// the next tick retries them.
func (r *Runner) runOnce(ctx context.Context) {
	var published []models.Chapter

	err := database.ExecuteInTransaction(ctx, r.db, func(tx pgx.Tx) error {
		due, err := r.scheduleRepo.ClaimDue(ctx, tx, time.Now(), r.batchSize)
		if err != nil {
			return err
		}

		for _, schedule := range due {
			chapter, pubErr := r.stories.PublishChapterTx(ctx, tx, schedule.ChapterID)
			if pubErr == nil {
				if err := r.scheduleRepo.SetStatus(ctx, tx, schedule.ID, models.ScheduleStatusPublished, ""); err != nil {
					return err
				}
				published = append(published, *chapter)
				continue
			}

			if errors.Is(pubErr, models.ErrAlreadyPublished) {
				// Someone published the chapter by hand first. The schedule
				// got what it wanted; close it without a second event.
				if err := r.scheduleRepo.SetStatus(ctx, tx, schedule.ID, models.ScheduleStatusPublished, ""); err != nil {
					return err
				}
				continue
			}

			if !isPermanentFailure(pubErr) {
				return pubErr
			}

			if err := r.scheduleRepo.SetStatus(ctx, tx, schedule.ID, models.ScheduleStatusFailed, pubErr.Error()); err != nil {
				return err
			}
			schedulesFailed.Inc()
			r.logger.Warn("Scheduled publish failed",
				zap.Error(pubErr),
				zap.String("scheduleID", schedule.ID.String()),
				zap.String("chapterID", schedule.ChapterID.String()))
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Scheduler pass failed", zap.Error(err))
		return
	}

	// Events go out only once the transaction holds.
	for i := range published {
		chapter := &published[i]
		schedulesPublished.Inc()
		if err := r.events.Publish(ctx, models.EventTypeChapterPublished, models.ChapterPublishedEvent{
			StoryID:   chapter.StoryID.String(),
			ChapterID: chapter.ID.String(),
			Title:     chapter.Title,
			Scheduled: true,
		}); err != nil {
			r.logger.Warn("Failed to publish chapter event",
				zap.Error(err),
				zap.String("chapterID", chapter.ID.String()))
		}
	}
}

// isPermanentFailure reports whether retrying the schedule cannot help: the
// chapter or story is gone, or the story left the published state.
func isPermanentFailure(err error) bool {
	return errors.Is(err, models.ErrChapterNotFound) ||
		errors.Is(err, models.ErrStoryNotFound) ||
		errors.Is(err, models.ErrStoryNotPublished)
}
