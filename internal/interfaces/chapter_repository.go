package interfaces

import (
	"context"
	"time"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// PartRepository defines the interface for story part persistence.
//
//go:generate mockery --name PartRepository --output ../mocks --outpkg mocks --case=underscore
type PartRepository interface {
	// Create inserts a part. Position 0 means append after the last part.
	// Returns models.ErrPositionTaken on an explicit position conflict.
	Create(ctx context.Context, querier DBTX, part *models.StoryPart) error

	// GetByID retrieves a part by ID.
	// Returns models.ErrPartNotFound if absent.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.StoryPart, error)

	// ListByStory returns the story's parts in position order.
	ListByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) ([]models.StoryPart, error)

	// Update rewrites title and position.
	Update(ctx context.Context, querier DBTX, part *models.StoryPart) error

	// Delete removes a part. Chapters inside it keep their story but lose
	// the part reference.
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}

// ChapterRepository defines the interface for chapter persistence.
//
//go:generate mockery --name ChapterRepository --output ../mocks --outpkg mocks --case=underscore
type ChapterRepository interface {
	// Create inserts a chapter. Position 0 means append after the last one.
	// Returns models.ErrPositionTaken on an explicit position conflict.
	Create(ctx context.Context, querier DBTX, chapter *models.Chapter) error

	// GetByID retrieves a chapter by ID.
	// Returns models.ErrChapterNotFound if absent.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Chapter, error)

	// ListByStory returns the story's chapters in position order.
	ListByStory(ctx context.Context, querier DBTX, storyID uuid.UUID) ([]models.Chapter, error)

	// Update rewrites the mutable chapter fields (title, synopsis, part,
	// position).
	Update(ctx context.Context, querier DBTX, chapter *models.Chapter) error

	// SetStatus transitions the chapter lifecycle state.
	SetStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.ChapterStatus, publishedAt *time.Time) error

	// Delete removes a chapter and its scenes.
	// Returns models.ErrChapterNotFound if absent.
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}

// SceneRepository defines the interface for scene persistence.
//
//go:generate mockery --name SceneRepository --output ../mocks --outpkg mocks --case=underscore
type SceneRepository interface {
	// Create inserts a scene. Position 0 means append after the last one.
	// Returns models.ErrPositionTaken on an explicit position conflict.
	Create(ctx context.Context, querier DBTX, scene *models.Scene) error

	// GetByID retrieves a scene by ID.
	// Returns models.ErrSceneNotFound if absent.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Scene, error)

	// ListByChapter returns the chapter's scenes in position order.
	ListByChapter(ctx context.Context, querier DBTX, chapterID uuid.UUID) ([]models.Scene, error)

	// Update rewrites the mutable scene fields (title, content, image URL,
	// image prompt, position).
	Update(ctx context.Context, querier DBTX, scene *models.Scene) error

	// Delete removes a scene.
	// Returns models.ErrSceneNotFound if absent.
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}
