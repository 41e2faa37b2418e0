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

// Compile-time check to ensure pgCommentRepository implements CommentRepository
var _ interfaces.CommentRepository = (*pgCommentRepository)(nil)

// commentMetaFields joins author display names and vote tallies onto comments.
const commentMetaFields = `
	c.id, c.story_id, c.chapter_id, c.author_id, c.parent_id, c.body, c.is_deleted,
	c.created_at, c.updated_at,
	u.display_name AS author_name,
	COALESCE((SELECT COUNT(*) FROM comment_votes v WHERE v.comment_id = c.id AND v.vote = 1), 0) AS upvotes,
	COALESCE((SELECT COUNT(*) FROM comment_votes v WHERE v.comment_id = c.id AND v.vote = -1), 0) AS downvotes`

type pgCommentRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCommentRepository creates a new PostgreSQL-backed CommentRepository.
func NewPgCommentRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CommentRepository {
	return &pgCommentRepository{
		db:     db,
		logger: logger.Named("PgCommentRepo"),
	}
}

// Create inserts a comment or reply.
func (r *pgCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (story_id, chapter_id, author_id, parent_id, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		comment.StoryID, comment.ChapterID, comment.AuthorID, comment.ParentID, comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			switch pgErr.ConstraintName {
			case "comments_story_id_fkey":
				return models.ErrStoryNotFound
			case "comments_chapter_id_fkey":
				return models.ErrChapterNotFound
			case "comments_parent_id_fkey":
				return models.ErrCommentNotFound
			}
		}
		r.logger.Error("Failed to create comment", zap.Error(err), zap.String("storyID", comment.StoryID.String()))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID, including soft-deleted ones.
func (r *pgCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	query := `SELECT id, story_id, chapter_id, author_id, parent_id, body, is_deleted, created_at, updated_at
		FROM comments WHERE id = $1`
	c := &models.Comment{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.StoryID, &c.ChapterID, &c.AuthorID, &c.ParentID,
		&c.Body, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCommentNotFound
		}
		r.logger.Error("Failed to get comment", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListThreadsByStory returns top-level comments with metadata, newest first.
func (r *pgCommentRepository) ListThreadsByStory(ctx context.Context, storyID uuid.UUID, chapterID *uuid.UUID, limit, offset int) ([]models.CommentWithMeta, error) {
	query := `SELECT ` + commentMetaFields + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.story_id = $1 AND c.parent_id IS NULL
			AND ($2::uuid IS NULL OR c.chapter_id = $2)
		ORDER BY c.created_at DESC
		LIMIT $3 OFFSET $4`
	comments := []models.CommentWithMeta{}
	if err := pgxscan.Select(ctx, r.db, &comments, query, storyID, chapterID, limit, offset); err != nil {
		r.logger.Error("Failed to list comment threads", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list comment threads: %w", err)
	}
	return comments, nil
}

// ListReplies returns the replies of the given top-level comments in posting order.
func (r *pgCommentRepository) ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]models.CommentWithMeta, error) {
	if len(parentIDs) == 0 {
		return []models.CommentWithMeta{}, nil
	}
	query := `SELECT ` + commentMetaFields + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.parent_id = ANY($1)
		ORDER BY c.created_at`
	replies := []models.CommentWithMeta{}
	if err := pgxscan.Select(ctx, r.db, &replies, query, parentIDs); err != nil {
		r.logger.Error("Failed to list replies", zap.Error(err), zap.Int("parents", len(parentIDs)))
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// SoftDelete blanks a comment's body and flags it deleted.
func (r *pgCommentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE comments SET body = '', is_deleted = TRUE, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to soft-delete comment", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to soft-delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCommentNotFound
	}
	return nil
}

// SetVote upserts the user's vote on a comment; vote 0 removes it.
func (r *pgCommentRepository) SetVote(ctx context.Context, commentID, userID uuid.UUID, vote int16) error {
	logFields := []zap.Field{
		zap.String("commentID", commentID.String()),
		zap.String("userID", userID.String()),
		zap.Int16("vote", vote),
	}

	if vote == 0 {
		_, err := r.db.Exec(ctx, `DELETE FROM comment_votes WHERE comment_id = $1 AND user_id = $2`, commentID, userID)
		if err != nil {
			r.logger.Error("Failed to clear comment vote", append(logFields, zap.Error(err))...)
			return fmt.Errorf("failed to clear comment vote: %w", err)
		}
		return nil
	}

	query := `INSERT INTO comment_votes (comment_id, user_id, vote) VALUES ($1, $2, $3)
		ON CONFLICT (comment_id, user_id) DO UPDATE SET vote = EXCLUDED.vote`
	_, err := r.db.Exec(ctx, query, commentID, userID, vote)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.ErrCommentNotFound
		}
		r.logger.Error("Failed to set comment vote", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to set comment vote: %w", err)
	}
	return nil
}

// CountByStory returns the number of visible comments on a story.
func (r *pgCommentRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM comments WHERE story_id = $1 AND is_deleted = FALSE`
	var count int64
	if err := r.db.QueryRow(ctx, query, storyID).Scan(&count); err != nil {
		r.logger.Error("Failed to count comments", zap.Error(err), zap.String("storyID", storyID.String()))
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}
