package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgScheduleRepository implements ScheduleRepository
var _ interfaces.ScheduleRepository = (*pgScheduleRepository)(nil)

const scheduleFields = `id, story_id, chapter_id, user_id, publish_at, status, failure_reason, created_at, updated_at`

type pgScheduleRepository struct {
	logger *zap.Logger
}

// NewPgScheduleRepository creates a new PostgreSQL-backed ScheduleRepository.
func NewPgScheduleRepository(logger *zap.Logger) interfaces.ScheduleRepository {
	return &pgScheduleRepository{
		logger: logger.Named("PgScheduleRepo"),
	}
}

func scanSchedule(row pgx.Row) (*models.PublishSchedule, error) {
	s := &models.PublishSchedule{}
	err := row.Scan(
		&s.ID, &s.StoryID, &s.ChapterID, &s.UserID, &s.PublishAt,
		&s.Status, &s.FailureReason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a pending schedule.
func (r *pgScheduleRepository) Create(ctx context.Context, querier interfaces.DBTX, schedule *models.PublishSchedule) error {
	query := `INSERT INTO publish_schedules (story_id, chapter_id, user_id, publish_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at, updated_at`
	err := querier.QueryRow(ctx, query,
		schedule.StoryID, schedule.ChapterID, schedule.UserID, schedule.PublishAt,
	).Scan(&schedule.ID, &schedule.Status, &schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			switch pgErr.ConstraintName {
			case "publish_schedules_chapter_id_fkey":
				return models.ErrChapterNotFound
			default:
				return models.ErrStoryNotFound
			}
		}
		r.logger.Error("Failed to create publish schedule", zap.Error(err),
			zap.String("chapterID", schedule.ChapterID.String()))
		return fmt.Errorf("failed to create publish schedule: %w", err)
	}
	return nil
}

// GetByID retrieves a schedule by ID.
func (r *pgScheduleRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.PublishSchedule, error) {
	query := `SELECT ` + scheduleFields + ` FROM publish_schedules WHERE id = $1`
	schedule, err := scanSchedule(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrScheduleNotFound
		}
		r.logger.Error("Failed to get publish schedule", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get publish schedule: %w", err)
	}
	return schedule, nil
}

// ListByUser returns the user's schedules, soonest first.
func (r *pgScheduleRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit, offset int) ([]models.PublishSchedule, error) {
	query := `SELECT ` + scheduleFields + ` FROM publish_schedules
		WHERE user_id = $1 ORDER BY publish_at LIMIT $2 OFFSET $3`
	schedules := []models.PublishSchedule{}
	if err := pgxscan.Select(ctx, querier, &schedules, query, userID, limit, offset); err != nil {
		r.logger.Error("Failed to list publish schedules", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list publish schedules: %w", err)
	}
	return schedules, nil
}

// UpdatePublishAt moves a pending schedule to a new time.
func (r *pgScheduleRepository) UpdatePublishAt(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, publishAt time.Time) error {
	query := `UPDATE publish_schedules SET publish_at = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`
	tag, err := querier.Exec(ctx, query, id, publishAt)
	if err != nil {
		r.logger.Error("Failed to update publish schedule time", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update publish schedule time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from one that left pending state.
		var exists bool
		if err := querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM publish_schedules WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check publish schedule existence: %w", err)
		}
		if !exists {
			return models.ErrScheduleNotFound
		}
		return models.ErrScheduleNotPending
	}
	return nil
}

// SetStatus transitions the schedule state.
func (r *pgScheduleRepository) SetStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.ScheduleStatus, failureReason string) error {
	query := `UPDATE publish_schedules SET status = $2, failure_reason = $3, updated_at = now() WHERE id = $1`
	tag, err := querier.Exec(ctx, query, id, status, failureReason)
	if err != nil {
		r.logger.Error("Failed to set publish schedule status", zap.Error(err),
			zap.String("id", id.String()), zap.String("status", string(status)))
		return fmt.Errorf("failed to set publish schedule status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrScheduleNotFound
	}
	return nil
}

// ClaimDue locks and returns up to limit due pending schedules. SKIP LOCKED
// keeps concurrent schedulers from claiming the same rows.
func (r *pgScheduleRepository) ClaimDue(ctx context.Context, querier interfaces.DBTX, now time.Time, limit int) ([]models.PublishSchedule, error) {
	query := `SELECT ` + scheduleFields + ` FROM publish_schedules
		WHERE status = 'pending' AND publish_at <= $1
		ORDER BY publish_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`
	schedules := []models.PublishSchedule{}
	if err := pgxscan.Select(ctx, querier, &schedules, query, now, limit); err != nil {
		r.logger.Error("Failed to claim due publish schedules", zap.Error(err))
		return nil, fmt.Errorf("failed to claim due publish schedules: %w", err)
	}
	return schedules, nil
}
