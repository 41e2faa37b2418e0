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

// Compile-time check to ensure pgChapterRepository implements ChapterRepository
var _ interfaces.ChapterRepository = (*pgChapterRepository)(nil)

const chapterFields = `id, story_id, part_id, title, synopsis, position, status, published_at, created_at, updated_at`

type pgChapterRepository struct {
	logger *zap.Logger
}

// NewPgChapterRepository creates a new PostgreSQL-backed ChapterRepository.
func NewPgChapterRepository(logger *zap.Logger) interfaces.ChapterRepository {
	return &pgChapterRepository{
		logger: logger.Named("PgChapterRepo"),
	}
}

func scanChapter(row pgx.Row) (*models.Chapter, error) {
	ch := &models.Chapter{}
	err := row.Scan(
		&ch.ID, &ch.StoryID, &ch.PartID, &ch.Title, &ch.Synopsis,
		&ch.Position, &ch.Status, &ch.PublishedAt, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Create inserts a chapter, appending when no position is given.
func (r *pgChapterRepository) Create(ctx context.Context, querier interfaces.DBTX, chapter *models.Chapter) error {
	query := `INSERT INTO chapters (story_id, part_id, title, synopsis, position, status)
		VALUES ($1, $2, $3, $4, CASE WHEN $5 > 0 THEN $5 ELSE
			(SELECT COALESCE(MAX(position), 0) + 1 FROM chapters WHERE story_id = $1) END, $6)
		RETURNING id, position, created_at, updated_at`
	err := querier.QueryRow(ctx, query,
		chapter.StoryID, chapter.PartID, chapter.Title, chapter.Synopsis, chapter.Position, chapter.Status,
	).Scan(&chapter.ID, &chapter.Position, &chapter.CreatedAt, &chapter.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return models.ErrPositionTaken
			case "23503":
				return models.ErrStoryNotFound
			}
		}
		r.logger.Error("Failed to create chapter", zap.Error(err), zap.String("storyID", chapter.StoryID.String()))
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// GetByID retrieves a chapter by ID.
func (r *pgChapterRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Chapter, error) {
	query := `SELECT ` + chapterFields + ` FROM chapters WHERE id = $1`
	chapter, err := scanChapter(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return chapter, nil
}

// ListByStory returns the story's chapters in position order.
func (r *pgChapterRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) ([]models.Chapter, error) {
	query := `SELECT ` + chapterFields + ` FROM chapters WHERE story_id = $1 ORDER BY position`
	chapters := []models.Chapter{}
	if err := pgxscan.Select(ctx, querier, &chapters, query, storyID); err != nil {
		r.logger.Error("Failed to list chapters", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// Update rewrites the mutable chapter fields.
func (r *pgChapterRepository) Update(ctx context.Context, querier interfaces.DBTX, chapter *models.Chapter) error {
	query := `UPDATE chapters
		SET part_id = $2, title = $3, synopsis = $4, position = $5, updated_at = now()
		WHERE id = $1`
	tag, err := querier.Exec(ctx, query,
		chapter.ID, chapter.PartID, chapter.Title, chapter.Synopsis, chapter.Position,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrPositionTaken
		}
		r.logger.Error("Failed to update chapter", zap.Error(err), zap.String("id", chapter.ID.String()))
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}

// SetStatus transitions the chapter lifecycle state.
func (r *pgChapterRepository) SetStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.ChapterStatus, publishedAt *time.Time) error {
	query := `UPDATE chapters
		SET status = $2, published_at = COALESCE($3, published_at), updated_at = now()
		WHERE id = $1`
	tag, err := querier.Exec(ctx, query, id, status, publishedAt)
	if err != nil {
		r.logger.Error("Failed to set chapter status", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to set chapter status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}

// Delete removes a chapter and cascades to its scenes.
func (r *pgChapterRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete chapter", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrChapterNotFound
	}
	return nil
}
