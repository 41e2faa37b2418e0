package interfaces

import (
	"context"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// CommentRepository defines the interface for comments and their votes.
//
//go:generate mockery --name CommentRepository --output ../mocks --outpkg mocks --case=underscore
type CommentRepository interface {
	// Create inserts a comment or reply.
	Create(ctx context.Context, comment *models.Comment) error

	// GetByID retrieves a comment by ID, including soft-deleted ones.
	// Returns models.ErrCommentNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)

	// ListThreadsByStory returns top-level comments with author names and
	// vote tallies, newest first. chapterID narrows to one chapter when set.
	ListThreadsByStory(ctx context.Context, storyID uuid.UUID, chapterID *uuid.UUID, limit, offset int) ([]models.CommentWithMeta, error)

	// ListReplies returns the replies of the given top-level comments in
	// posting order.
	ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]models.CommentWithMeta, error)

	// SoftDelete blanks a comment's body and flags it deleted, keeping the
	// thread structure intact.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// SetVote upserts the user's vote on a comment; vote 0 removes it.
	SetVote(ctx context.Context, commentID, userID uuid.UUID, vote int16) error

	// CountByStory returns the number of visible comments on a story.
	CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error)
}
