package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgPartRepository implements PartRepository
var _ interfaces.PartRepository = (*pgPartRepository)(nil)

type pgPartRepository struct {
	logger *zap.Logger
}

// NewPgPartRepository creates a new PostgreSQL-backed PartRepository.
func NewPgPartRepository(logger *zap.Logger) interfaces.PartRepository {
	return &pgPartRepository{
		logger: logger.Named("PgPartRepo"),
	}
}

// Create inserts a part, appending when no position is given.
func (r *pgPartRepository) Create(ctx context.Context, querier interfaces.DBTX, part *models.StoryPart) error {
	query := `INSERT INTO story_parts (story_id, title, position)
		VALUES ($1, $2, CASE WHEN $3 > 0 THEN $3 ELSE
			(SELECT COALESCE(MAX(position), 0) + 1 FROM story_parts WHERE story_id = $1) END)
		RETURNING id, position`
	err := querier.QueryRow(ctx, query, part.StoryID, part.Title, part.Position).
		Scan(&part.ID, &part.Position)
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
		r.logger.Error("Failed to create story part", zap.Error(err), zap.String("storyID", part.StoryID.String()))
		return fmt.Errorf("failed to create story part: %w", err)
	}
	return nil
}

// GetByID retrieves a part by ID.
func (r *pgPartRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.StoryPart, error) {
	query := `SELECT id, story_id, title, position FROM story_parts WHERE id = $1`
	part := &models.StoryPart{}
	err := querier.QueryRow(ctx, query, id).Scan(&part.ID, &part.StoryID, &part.Title, &part.Position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPartNotFound
		}
		r.logger.Error("Failed to get story part", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get story part: %w", err)
	}
	return part, nil
}

// ListByStory returns the story's parts in position order.
func (r *pgPartRepository) ListByStory(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) ([]models.StoryPart, error) {
	query := `SELECT id, story_id, title, position FROM story_parts WHERE story_id = $1 ORDER BY position`
	parts := []models.StoryPart{}
	if err := pgxscan.Select(ctx, querier, &parts, query, storyID); err != nil {
		r.logger.Error("Failed to list story parts", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list story parts: %w", err)
	}
	return parts, nil
}

// Update rewrites title and position.
func (r *pgPartRepository) Update(ctx context.Context, querier interfaces.DBTX, part *models.StoryPart) error {
	query := `UPDATE story_parts SET title = $2, position = $3 WHERE id = $1`
	tag, err := querier.Exec(ctx, query, part.ID, part.Title, part.Position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrPositionTaken
		}
		r.logger.Error("Failed to update story part", zap.Error(err), zap.String("id", part.ID.String()))
		return fmt.Errorf("failed to update story part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPartNotFound
	}
	return nil
}

// Delete removes a part; its chapters keep their story.
func (r *pgPartRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, `DELETE FROM story_parts WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete story part", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete story part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPartNotFound
	}
	return nil
}
