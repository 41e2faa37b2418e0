package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

const (
	apiKeyPrefix    = "fk_"
	apiKeySecretLen = 32 // random bytes, 43 chars once url-safe encoded
	apiKeyLookupLen = 16 // leading chars stored in clear for lookup
)

// APIKeyService manages long-lived bearer credentials.
//
//go:generate mockery --name APIKeyService --output ../mocks --outpkg mocks --case=underscore
type APIKeyService interface {
	// Create mints a key and returns the record plus the plaintext. The
	// plaintext is never recoverable afterwards.
	Create(ctx context.Context, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (*models.APIKey, string, error)

	// List returns the user's keys, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error)

	// Revoke deactivates one of the user's keys.
	Revoke(ctx context.Context, userID uuid.UUID, keyID string) error

	// Verify resolves a plaintext key to its record, checking hash, active
	// flag and expiry. Returns models.ErrAPIKeyInvalid when nothing matches
	// and models.ErrAPIKeyExpired past the expiry.
	Verify(ctx context.Context, plaintext string) (*models.APIKey, error)
}

// Compile-time check to ensure apiKeyServiceImpl implements APIKeyService
var _ APIKeyService = (*apiKeyServiceImpl)(nil)

type apiKeyServiceImpl struct {
	keyRepo interfaces.APIKeyRepository
	logger  *zap.Logger
}

// NewAPIKeyService creates a new instance of apiKeyServiceImpl.
func NewAPIKeyService(keyRepo interfaces.APIKeyRepository, logger *zap.Logger) APIKeyService {
	return &apiKeyServiceImpl{
		keyRepo: keyRepo,
		logger:  logger.Named("APIKeyService"),
	}
}

// Create mints a new API key for the user.
func (s *apiKeyServiceImpl) Create(ctx context.Context, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (*models.APIKey, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("key name is required: %w", models.ErrInvalidInput)
	}
	if len(scopes) == 0 {
		return nil, "", fmt.Errorf("at least one scope is required: %w", models.ErrInvalidInput)
	}
	for _, scope := range scopes {
		if !models.ValidScope(scope) {
			return nil, "", fmt.Errorf("unknown scope %q: %w", scope, models.ErrInvalidInput)
		}
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, "", fmt.Errorf("expiry must be in the future: %w", models.ErrInvalidInput)
	}

	plaintext, err := generateAPIKey()
	if err != nil {
		s.logger.Error("Failed to generate API key material", zap.Error(err))
		return nil, "", fmt.Errorf("failed to generate api key: %w", err)
	}

	// The full plaintext goes through bcrypt; only the lookup prefix stays
	// readable in the database.
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash API key", zap.Error(err))
		return nil, "", fmt.Errorf("failed to hash api key: %w", err)
	}

	key := &models.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		KeyPrefix: plaintext[:apiKeyLookupLen],
		KeyHash:   string(hash),
		Scopes:    scopes,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, "", err
	}

	s.logger.Info("API key created",
		zap.String("keyID", key.ID),
		zap.String("userID", userID.String()),
		zap.Strings("scopes", scopes))
	return key, plaintext, nil
}

// List returns the user's keys.
func (s *apiKeyServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	return s.keyRepo.ListByUser(ctx, userID)
}

// Revoke deactivates one of the user's keys.
func (s *apiKeyServiceImpl) Revoke(ctx context.Context, userID uuid.UUID, keyID string) error {
	if err := s.keyRepo.Deactivate(ctx, userID, keyID); err != nil {
		if !errors.Is(err, models.ErrAPIKeyNotFound) {
			s.logger.Error("Failed to revoke API key", zap.Error(err), zap.String("keyID", keyID))
		}
		return err
	}
	s.logger.Info("API key revoked", zap.String("keyID", keyID), zap.String("userID", userID.String()))
	return nil
}

// Verify resolves a plaintext key to its record.
func (s *apiKeyServiceImpl) Verify(ctx context.Context, plaintext string) (*models.APIKey, error) {
	if len(plaintext) <= apiKeyLookupLen || !strings.HasPrefix(plaintext, apiKeyPrefix) {
		return nil, models.ErrAPIKeyInvalid
	}

	candidates, err := s.keyRepo.ListActiveByPrefix(ctx, plaintext[:apiKeyLookupLen])
	if err != nil {
		s.logger.Error("Failed to look up API keys by prefix", zap.Error(err))
		return nil, fmt.Errorf("failed to look up api keys: %w", err)
	}

	var matched *models.APIKey
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].KeyHash), []byte(plaintext)) == nil {
			matched = &candidates[i]
			break
		}
	}
	if matched == nil {
		s.logger.Debug("API key verification failed: no matching hash")
		return nil, models.ErrAPIKeyInvalid
	}

	if matched.ExpiresAt != nil && matched.ExpiresAt.Before(time.Now()) {
		s.logger.Debug("API key verification failed: expired", zap.String("keyID", matched.ID))
		return nil, models.ErrAPIKeyExpired
	}

	// Usage tracking must never fail a request.
	if err := s.keyRepo.TouchLastUsed(ctx, matched.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to update API key last_used_at", zap.Error(err), zap.String("keyID", matched.ID))
	}

	return matched, nil
}

// generateAPIKey returns the plaintext fk_-prefixed key.
func generateAPIKey() (string, error) {
	raw := make([]byte, apiKeySecretLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}
