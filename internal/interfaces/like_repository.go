package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// LikeRepository defines the interface for story likes.
//
//go:generate mockery --name LikeRepository --output ../mocks --outpkg mocks --case=underscore
type LikeRepository interface {
	// AddLike records a like.
	// Returns models.ErrAlreadyLiked if the user already liked the story.
	AddLike(ctx context.Context, userID, storyID uuid.UUID) error

	// RemoveLike deletes a like.
	// Returns models.ErrLikeNotFound if there was none.
	RemoveLike(ctx context.Context, userID, storyID uuid.UUID) error

	// CheckLike reports whether the user liked the story.
	CheckLike(ctx context.Context, userID, storyID uuid.UUID) (bool, error)

	// CountLikes returns the total number of likes for a story.
	CountLikes(ctx context.Context, storyID uuid.UUID) (int64, error)

	// ListLikedStoryIDs returns IDs of stories the user liked, most recent
	// like first.
	ListLikedStoryIDs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
}
