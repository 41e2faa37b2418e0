package interfaces

import (
	"context"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// CharacterRepository defines the interface for character persistence.
//
//go:generate mockery --name CharacterRepository --output ../mocks --outpkg mocks --case=underscore
type CharacterRepository interface {
	// Create inserts a character.
	Create(ctx context.Context, character *models.Character) error

	// GetByID retrieves a character by ID.
	// Returns models.ErrCharacterNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error)

	// ListByStory returns the story's characters by name.
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Character, error)

	// Update rewrites name, description, portrait and traits.
	Update(ctx context.Context, character *models.Character) error

	// Delete removes a character.
	// Returns models.ErrCharacterNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PlaceRepository defines the interface for place persistence.
//
//go:generate mockery --name PlaceRepository --output ../mocks --outpkg mocks --case=underscore
type PlaceRepository interface {
	// Create inserts a place.
	Create(ctx context.Context, place *models.Place) error

	// GetByID retrieves a place by ID.
	// Returns models.ErrPlaceNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Place, error)

	// ListByStory returns the story's places by name.
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Place, error)

	// Update rewrites name, description and image.
	Update(ctx context.Context, place *models.Place) error

	// Delete removes a place.
	// Returns models.ErrPlaceNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}
