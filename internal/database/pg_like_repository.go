package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// pgLikeRepository implements the LikeRepository interface for PostgreSQL.
type pgLikeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// Compile-time check
var _ interfaces.LikeRepository = (*pgLikeRepository)(nil)

// NewPgLikeRepository creates a new like repository instance.
func NewPgLikeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.LikeRepository {
	return &pgLikeRepository{
		db:     db,
		logger: logger.Named("PgLikeRepo"),
	}
}

// AddLike records a like.
func (r *pgLikeRepository) AddLike(ctx context.Context, userID, storyID uuid.UUID) error {
	query := `INSERT INTO story_likes (user_id, story_id) VALUES ($1, $2)`
	logFields := []zap.Field{
		zap.String("userID", userID.String()),
		zap.String("storyID", storyID.String()),
	}
	r.logger.Debug("Adding like record", logFields...)

	_, err := r.db.Exec(ctx, query, userID, storyID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation, the like already exists
				r.logger.Warn("Like already exists (unique constraint violation)", logFields...)
				return models.ErrAlreadyLiked
			case "23503": // foreign_key_violation, the story is gone
				r.logger.Warn("Story not found (foreign key violation)", logFields...)
				return models.ErrStoryNotFound
			}
		}
		r.logger.Error("Failed to add like record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to add like: %w", err)
	}

	r.logger.Info("Like record added successfully", logFields...)
	return nil
}

// RemoveLike deletes a like.
func (r *pgLikeRepository) RemoveLike(ctx context.Context, userID, storyID uuid.UUID) error {
	query := `DELETE FROM story_likes WHERE user_id = $1 AND story_id = $2`
	logFields := []zap.Field{
		zap.String("userID", userID.String()),
		zap.String("storyID", storyID.String()),
	}
	r.logger.Debug("Removing like record", logFields...)

	commandTag, err := r.db.Exec(ctx, query, userID, storyID)
	if err != nil {
		r.logger.Error("Failed to remove like record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to remove like: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		r.logger.Warn("Like not found to remove", logFields...)
		return models.ErrLikeNotFound
	}

	r.logger.Info("Like record removed successfully", logFields...)
	return nil
}

// CheckLike reports whether the user liked the story.
func (r *pgLikeRepository) CheckLike(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM story_likes WHERE user_id = $1 AND story_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, storyID).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check like existence", zap.Error(err),
			zap.String("userID", userID.String()), zap.String("storyID", storyID.String()))
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}
	return exists, nil
}

// CountLikes returns the total number of likes for a story.
func (r *pgLikeRepository) CountLikes(ctx context.Context, storyID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM story_likes WHERE story_id = $1`
	var count int64
	err := r.db.QueryRow(ctx, query, storyID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count likes for story", zap.Error(err), zap.String("storyID", storyID.String()))
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// ListLikedStoryIDs returns IDs of stories the user liked, newest like first.
func (r *pgLikeRepository) ListLikedStoryIDs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	query := `SELECT story_id FROM story_likes WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list liked stories", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list liked stories: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan liked story id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate liked stories: %w", err)
	}
	return ids, nil
}
