package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

const (
	saveGenerationResultQuery = `
		INSERT INTO generation_results (
			id, user_id, story_id, kind, status,
			generated_text, image_url, model,
			prompt_tokens, completion_tokens, error_details
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			generated_text = EXCLUDED.generated_text,
			image_url = EXCLUDED.image_url,
			model = EXCLUDED.model,
			prompt_tokens = EXCLUDED.prompt_tokens,
			completion_tokens = EXCLUDED.completion_tokens,
			error_details = EXCLUDED.error_details,
			updated_at = now()
	`
	generationResultFields = `
		id, user_id, story_id, kind, status,
		generated_text, image_url, model,
		prompt_tokens, completion_tokens, error_details,
		created_at, updated_at`
)

// Compile-time check to ensure pgGenerationResultRepository implements GenerationResultRepository
var _ interfaces.GenerationResultRepository = (*pgGenerationResultRepository)(nil)

type pgGenerationResultRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgGenerationResultRepository creates a new PostgreSQL-backed GenerationResultRepository.
func NewPgGenerationResultRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.GenerationResultRepository {
	return &pgGenerationResultRepository{
		db:     db,
		logger: logger.Named("PgGenerationResultRepo"),
	}
}

// Save upserts a generation result keyed by task ID.
func (r *pgGenerationResultRepository) Save(ctx context.Context, result *models.GenerationResult) error {
	tag, err := r.db.Exec(ctx, saveGenerationResultQuery,
		result.ID,
		result.UserID,
		result.StoryID,
		result.Kind,
		result.Status,
		result.GeneratedText,
		result.ImageURL,
		result.Model,
		result.PromptTokens,
		result.CompletionTokens,
		result.ErrorDetails,
	)
	if err != nil {
		r.logger.Error("Failed to save generation result",
			zap.String("task_id", result.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save generation result: %w", err)
	}
	r.logger.Debug("Generation result saved",
		zap.String("task_id", result.ID),
		zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

// GetByTaskID retrieves a result by its task ID.
func (r *pgGenerationResultRepository) GetByTaskID(ctx context.Context, taskID string) (*models.GenerationResult, error) {
	query := `SELECT ` + generationResultFields + ` FROM generation_results WHERE id = $1`
	row := r.db.QueryRow(ctx, query, taskID)

	result := &models.GenerationResult{}
	err := row.Scan(
		&result.ID, &result.UserID, &result.StoryID, &result.Kind, &result.Status,
		&result.GeneratedText, &result.ImageURL, &result.Model,
		&result.PromptTokens, &result.CompletionTokens, &result.ErrorDetails,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGenerationNotFound
		}
		r.logger.Error("Failed to get generation result",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get generation result: %w", err)
	}
	return result, nil
}

// ListByUser returns the user's results, newest first.
func (r *pgGenerationResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationResult, error) {
	query := `SELECT ` + generationResultFields + ` FROM generation_results
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	results := []models.GenerationResult{}
	if err := pgxscan.Select(ctx, r.db, &results, query, userID, limit, offset); err != nil {
		r.logger.Error("Failed to list generation results", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list generation results: %w", err)
	}
	return results, nil
}
