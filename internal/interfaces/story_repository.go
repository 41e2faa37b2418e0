package interfaces

import (
	"context"
	"time"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository defines the interface for story persistence.
//
//go:generate mockery --name StoryRepository --output ../mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// Create inserts a new story.
	// Returns models.ErrStorySlugTaken when the owner already uses the slug.
	Create(ctx context.Context, querier DBTX, story *models.Story) error

	// GetByID retrieves a story by ID.
	// Returns models.ErrStoryNotFound if absent.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)

	// GetBySlug retrieves a story by owner and slug.
	// Returns models.ErrStoryNotFound if absent.
	GetBySlug(ctx context.Context, querier DBTX, ownerID uuid.UUID, slug string) (*models.Story, error)

	// ListByOwner returns the owner's stories, newest first.
	ListByOwner(ctx context.Context, querier DBTX, ownerID uuid.UUID, limit, offset int) ([]models.Story, error)

	// ListPublished returns published stories with community counters for the
	// feed, newest publication first. Genre filters when non-empty.
	ListPublished(ctx context.Context, querier DBTX, genre string, limit, offset int) ([]models.StoryWithStats, error)

	// Update rewrites the mutable story fields (title, slug, summary, genre,
	// kind, cover image).
	Update(ctx context.Context, querier DBTX, story *models.Story) error

	// SetStatus transitions the story lifecycle state. publishedAt is stored
	// when transitioning to published.
	SetStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.StoryStatus, publishedAt *time.Time) error

	// Delete removes a story and, via cascade, all its content.
	// Returns models.ErrStoryNotFound if absent.
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}
