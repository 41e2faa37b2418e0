package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure pgAPIKeyRepository implements APIKeyRepository
var _ interfaces.APIKeyRepository = (*pgAPIKeyRepository)(nil)

type pgAPIKeyRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgAPIKeyRepository creates a new PostgreSQL-backed APIKeyRepository.
func NewPgAPIKeyRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.APIKeyRepository {
	return &pgAPIKeyRepository{
		db:     db,
		logger: logger.Named("PgAPIKeyRepo"),
	}
}

const apiKeyFields = `id, user_id, name, key_prefix, key_hash, scopes, is_active, last_used_at, expires_at, created_at, updated_at`

// Scopes are stored as a jsonb array, so rows scan through a raw byte slice.
func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	key := &models.APIKey{}
	var scopesRaw []byte
	err := row.Scan(&key.ID, &key.UserID, &key.Name, &key.KeyPrefix, &key.KeyHash,
		&scopesRaw, &key.IsActive, &key.LastUsedAt, &key.ExpiresAt,
		&key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scopesRaw, &key.Scopes); err != nil {
		return nil, fmt.Errorf("failed to decode api key scopes: %w", err)
	}
	return key, nil
}

// Create inserts a new API key record.
func (r *pgAPIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	scopesJSON, err := json.Marshal(key.Scopes)
	if err != nil {
		return fmt.Errorf("failed to encode api key scopes: %w", err)
	}
	query := `INSERT INTO api_keys (id, user_id, name, key_prefix, key_hash, scopes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING is_active, created_at, updated_at`
	err = r.db.QueryRow(ctx, query,
		key.ID, key.UserID, key.Name, key.KeyPrefix, key.KeyHash, scopesJSON, key.ExpiresAt,
	).Scan(&key.IsActive, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create api key", zap.Error(err), zap.String("userID", key.UserID.String()))
		return fmt.Errorf("failed to create api key: %w", err)
	}
	r.logger.Info("API key created", zap.String("keyID", key.ID), zap.String("userID", key.UserID.String()))
	return nil
}

// GetByID retrieves a key by its ID.
func (r *pgAPIKeyRepository) GetByID(ctx context.Context, id string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyFields + ` FROM api_keys WHERE id = $1`
	key, err := scanAPIKey(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to get api key by id", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get api key by id: %w", err)
	}
	return key, nil
}

// ListByUser returns every key owned by a user, newest first.
func (r *pgAPIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	query := `SELECT ` + apiKeyFields + ` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list api keys", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()
	return collectAPIKeys(rows)
}

// ListActiveByPrefix returns active keys matching a lookup prefix.
func (r *pgAPIKeyRepository) ListActiveByPrefix(ctx context.Context, prefix string) ([]models.APIKey, error) {
	query := `SELECT ` + apiKeyFields + ` FROM api_keys WHERE key_prefix = $1 AND is_active LIMIT 10`
	rows, err := r.db.Query(ctx, query, prefix)
	if err != nil {
		r.logger.Error("Failed to list api keys by prefix", zap.Error(err))
		return nil, fmt.Errorf("failed to list api keys by prefix: %w", err)
	}
	defer rows.Close()
	return collectAPIKeys(rows)
}

func collectAPIKeys(rows pgx.Rows) ([]models.APIKey, error) {
	keys := []models.APIKey{}
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key row: %w", err)
		}
		keys = append(keys, *key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api key rows: %w", err)
	}
	return keys, nil
}

// Deactivate flags a key inactive. Only the owner's keys are affected.
func (r *pgAPIKeyRepository) Deactivate(ctx context.Context, userID uuid.UUID, id string) error {
	query := `UPDATE api_keys SET is_active = FALSE, updated_at = now() WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		r.logger.Error("Failed to deactivate api key", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to deactivate api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAPIKeyNotFound
	}
	r.logger.Info("API key deactivated", zap.String("keyID", id), zap.String("userID", userID.String()))
	return nil
}

// TouchLastUsed records key usage.
func (r *pgAPIKeyRepository) TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("failed to touch api key last_used_at: %w", err)
	}
	return nil
}
