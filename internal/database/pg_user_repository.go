package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

const userFields = `id, username, email, display_name, password_hash, password_salt, role, is_banned, preferences, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.DisplayName,
		&user.PasswordHash, &user.PasswordSalt, &user.Role, &user.IsBanned,
		&user.Preferences, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, display_name, password_hash, password_salt, role, preferences)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb))
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.DisplayName,
		user.PasswordHash, user.PasswordSalt, user.Role, user.Preferences,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_email_key":
				r.logger.Warn("Attempted to create duplicate user by email", zap.String("email", user.Email))
				return models.ErrEmailAlreadyExists
			default:
				r.logger.Warn("Attempted to create duplicate user by username", zap.String("username", user.Username))
				return models.ErrUserAlreadyExists
			}
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("username", user.Username))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userFields + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get user by id from postgres: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userFields + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email from postgres: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *pgUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userFields + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by username", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username from postgres: %w", err)
	}
	return user, nil
}

// UpdateProfile updates display name and/or email, leaving nil fields as-is.
func (r *pgUserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, email *string) error {
	query := `UPDATE users SET
		display_name = COALESCE($2, display_name),
		email = COALESCE($3, email),
		updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, displayName, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrEmailAlreadyExists
		}
		r.logger.Error("Failed to update user profile", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash and salt.
func (r *pgUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash, passwordSalt string) error {
	query := `UPDATE users SET password_hash = $2, password_salt = $3, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, passwordHash, passwordSalt)
	if err != nil {
		r.logger.Error("Failed to update password", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Info("Password updated", zap.String("userID", userID.String()))
	return nil
}

// UpdatePreferences replaces the stored preferences blob.
func (r *pgUserRepository) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences json.RawMessage) error {
	query := `UPDATE users SET preferences = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, preferences)
	if err != nil {
		r.logger.Error("Failed to update preferences", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// SetUserBanStatus sets the ban flag of a user.
func (r *pgUserRepository) SetUserBanStatus(ctx context.Context, userID uuid.UUID, isBanned bool) error {
	query := `UPDATE users SET is_banned = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, isBanned)
	if err != nil {
		r.logger.Error("Failed to set ban status", zap.Error(err), zap.String("userID", userID.String()))
		return fmt.Errorf("failed to set ban status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Info("User ban status updated", zap.String("userID", userID.String()), zap.Bool("isBanned", isBanned))
	return nil
}
