package interfaces

import (
	"context"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// TokenRepository defines the interface for session token persistence (Redis).
// Both token UUIDs of a pair are tracked so individual tokens can be revoked
// and a ban can invalidate every live session of a user.
//
//go:generate mockery --name TokenRepository --output ../mocks --outpkg mocks --case=underscore
type TokenRepository interface {
	// SetToken stores the access and refresh UUIDs mapped to the user ID with
	// TTLs matching the token lifetimes.
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error

	// GetUserIDByAccessUUID resolves an access UUID to its user ID.
	// Returns models.ErrTokenNotFound if absent or expired.
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)

	// GetUserIDByRefreshUUID resolves a refresh UUID to its user ID.
	// Returns models.ErrTokenNotFound if absent or expired.
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)

	// DeleteTokens removes the given token UUIDs. Returns the number of keys
	// actually deleted.
	DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error)

	// DeleteRefreshUUID removes only the refresh UUID, used during rotation.
	DeleteRefreshUUID(ctx context.Context, userID uuid.UUID, refreshUUID string) error

	// DeleteTokensByUserID removes every live token of a user.
	// Returns the number of tokens deleted.
	DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
