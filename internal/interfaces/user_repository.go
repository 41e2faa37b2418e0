package interfaces

import (
	"context"
	"encoding/json"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data persistence.
//
//go:generate mockery --name UserRepository --output ../mocks --outpkg mocks --case=underscore
type UserRepository interface {
	// CreateUser inserts a new user.
	// Returns models.ErrUserAlreadyExists / models.ErrEmailAlreadyExists on
	// unique constraint violations.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetUserByEmail retrieves a user by email.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUsername retrieves a user by username.
	// Returns models.ErrUserNotFound if the user does not exist.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateProfile updates display name and/or email. Nil fields are left
	// unchanged.
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, email *string) error

	// UpdatePassword replaces the stored password hash and salt.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash, passwordSalt string) error

	// UpdatePreferences replaces the stored preferences blob.
	UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences json.RawMessage) error

	// SetUserBanStatus sets the ban flag of a user.
	SetUserBanStatus(ctx context.Context, userID uuid.UUID, isBanned bool) error
}
