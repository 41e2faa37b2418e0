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

// Compile-time check to ensure pgSceneRepository implements SceneRepository
var _ interfaces.SceneRepository = (*pgSceneRepository)(nil)

const sceneFields = `id, chapter_id, position, title, content, image_url, image_prompt, created_at, updated_at`

type pgSceneRepository struct {
	logger *zap.Logger
}

// NewPgSceneRepository creates a new PostgreSQL-backed SceneRepository.
func NewPgSceneRepository(logger *zap.Logger) interfaces.SceneRepository {
	return &pgSceneRepository{
		logger: logger.Named("PgSceneRepo"),
	}
}

func scanScene(row pgx.Row) (*models.Scene, error) {
	s := &models.Scene{}
	err := row.Scan(
		&s.ID, &s.ChapterID, &s.Position, &s.Title, &s.Content,
		&s.ImageURL, &s.ImagePrompt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a scene, appending when no position is given.
func (r *pgSceneRepository) Create(ctx context.Context, querier interfaces.DBTX, scene *models.Scene) error {
	query := `INSERT INTO scenes (chapter_id, position, title, content, image_url, image_prompt)
		VALUES ($1, CASE WHEN $2 > 0 THEN $2 ELSE
			(SELECT COALESCE(MAX(position), 0) + 1 FROM scenes WHERE chapter_id = $1) END, $3, $4, $5, $6)
		RETURNING id, position, created_at, updated_at`
	err := querier.QueryRow(ctx, query,
		scene.ChapterID, scene.Position, scene.Title, scene.Content, scene.ImageURL, scene.ImagePrompt,
	).Scan(&scene.ID, &scene.Position, &scene.CreatedAt, &scene.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return models.ErrPositionTaken
			case "23503":
				return models.ErrChapterNotFound
			}
		}
		r.logger.Error("Failed to create scene", zap.Error(err), zap.String("chapterID", scene.ChapterID.String()))
		return fmt.Errorf("failed to create scene: %w", err)
	}
	return nil
}

// GetByID retrieves a scene by ID.
func (r *pgSceneRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Scene, error) {
	query := `SELECT ` + sceneFields + ` FROM scenes WHERE id = $1`
	scene, err := scanScene(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSceneNotFound
		}
		r.logger.Error("Failed to get scene", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get scene: %w", err)
	}
	return scene, nil
}

// ListByChapter returns the chapter's scenes in position order.
func (r *pgSceneRepository) ListByChapter(ctx context.Context, querier interfaces.DBTX, chapterID uuid.UUID) ([]models.Scene, error) {
	query := `SELECT ` + sceneFields + ` FROM scenes WHERE chapter_id = $1 ORDER BY position`
	scenes := []models.Scene{}
	if err := pgxscan.Select(ctx, querier, &scenes, query, chapterID); err != nil {
		r.logger.Error("Failed to list scenes", zap.Error(err), zap.String("chapterID", chapterID.String()))
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	return scenes, nil
}

// Update rewrites the mutable scene fields.
func (r *pgSceneRepository) Update(ctx context.Context, querier interfaces.DBTX, scene *models.Scene) error {
	query := `UPDATE scenes
		SET position = $2, title = $3, content = $4, image_url = $5, image_prompt = $6, updated_at = now()
		WHERE id = $1`
	tag, err := querier.Exec(ctx, query,
		scene.ID, scene.Position, scene.Title, scene.Content, scene.ImageURL, scene.ImagePrompt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrPositionTaken
		}
		r.logger.Error("Failed to update scene", zap.Error(err), zap.String("id", scene.ID.String()))
		return fmt.Errorf("failed to update scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSceneNotFound
	}
	return nil
}

// Delete removes a scene.
func (r *pgSceneRepository) Delete(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete scene", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to delete scene: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSceneNotFound
	}
	return nil
}
