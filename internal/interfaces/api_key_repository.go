package interfaces

import (
	"context"
	"time"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// APIKeyRepository defines the interface for API key persistence.
//
//go:generate mockery --name APIKeyRepository --output ../mocks --outpkg mocks --case=underscore
type APIKeyRepository interface {
	// Create inserts a new API key record.
	Create(ctx context.Context, key *models.APIKey) error

	// GetByID retrieves a key by its ID.
	// Returns models.ErrAPIKeyNotFound if absent.
	GetByID(ctx context.Context, id string) (*models.APIKey, error)

	// ListByUser returns every key owned by a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error)

	// ListActiveByPrefix returns active keys matching a lookup prefix.
	// Several keys may share a prefix; the caller disambiguates by hash.
	ListActiveByPrefix(ctx context.Context, prefix string) ([]models.APIKey, error)

	// Deactivate flags a key inactive. Only the owner's keys are affected.
	// Returns models.ErrAPIKeyNotFound if no matching key exists.
	Deactivate(ctx context.Context, userID uuid.UUID, id string) error

	// TouchLastUsed records key usage. Failures are the caller's to ignore.
	TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error
}
