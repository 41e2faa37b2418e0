package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

// Mock AuthService
type AuthService struct {
	mock.Mock
}

var _ service.AuthService = (*AuthService)(nil)

func (m *AuthService) Register(ctx context.Context, username, email, password, displayName string) (*models.User, error) {
	args := m.Called(ctx, username, email, password, displayName)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, email, password string) (*models.TokenDetails, error) {
	args := m.Called(ctx, email, password)
	var td *models.TokenDetails
	if v := args.Get(0); v != nil {
		td = v.(*models.TokenDetails)
	}
	return td, args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) error {
	args := m.Called(ctx, userID, accessUUID, refreshUUID)
	return args.Error(0)
}

func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	args := m.Called(ctx, refreshToken)
	var td *models.TokenDetails
	if v := args.Get(0); v != nil {
		td = v.(*models.TokenDetails)
	}
	return td, args.Error(1)
}

func (m *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	var claims *models.Claims
	if v := args.Get(0); v != nil {
		claims = v.(*models.Claims)
	}
	return claims, args.Error(1)
}

func (m *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	var user *models.User
	if v := args.Get(0); v != nil {
		user = v.(*models.User)
	}
	return user, args.Error(1)
}

func (m *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, email *string) error {
	args := m.Called(ctx, userID, displayName, email)
	return args.Error(0)
}

func (m *AuthService) GetPreferences(ctx context.Context, userID uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, userID)
	var prefs json.RawMessage
	if v := args.Get(0); v != nil {
		prefs = v.(json.RawMessage)
	}
	return prefs, args.Error(1)
}

func (m *AuthService) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences json.RawMessage) error {
	args := m.Called(ctx, userID, preferences)
	return args.Error(0)
}

func (m *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

func (m *AuthService) BanUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *AuthService) UnbanUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// Mock APIKeyService
type APIKeyService struct {
	mock.Mock
}

var _ service.APIKeyService = (*APIKeyService)(nil)

func (m *APIKeyService) Create(ctx context.Context, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (*models.APIKey, string, error) {
	args := m.Called(ctx, userID, name, scopes, expiresAt)
	var key *models.APIKey
	if v := args.Get(0); v != nil {
		key = v.(*models.APIKey)
	}
	return key, args.String(1), args.Error(2)
}

func (m *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	args := m.Called(ctx, userID)
	var keys []models.APIKey
	if v := args.Get(0); v != nil {
		keys = v.([]models.APIKey)
	}
	return keys, args.Error(1)
}

func (m *APIKeyService) Revoke(ctx context.Context, userID uuid.UUID, keyID string) error {
	args := m.Called(ctx, userID, keyID)
	return args.Error(0)
}

func (m *APIKeyService) Verify(ctx context.Context, plaintext string) (*models.APIKey, error) {
	args := m.Called(ctx, plaintext)
	var key *models.APIKey
	if v := args.Get(0); v != nil {
		key = v.(*models.APIKey)
	}
	return key, args.Error(1)
}
