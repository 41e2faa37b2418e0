package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"fictures-server/internal/config"
	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

const tokenIssuer = "fictures-server"

// PBKDF2 parameters for password storage.
const (
	pbkdf2Iterations = 210_000
	pbkdf2KeyLen     = 32
	passwordSaltLen  = 16
)

// AuthService handles accounts and session tokens.
//
//go:generate mockery --name AuthService --output ../mocks --outpkg mocks --case=underscore
type AuthService interface {
	// Register creates a new account. New accounts get the writer role.
	Register(ctx context.Context, username, email, password, displayName string) (*models.User, error)

	// Login authenticates by email and password and issues a token pair.
	// Banned accounts fail with the same error as wrong credentials.
	Login(ctx context.Context, email, password string) (*models.TokenDetails, error)

	// Logout revokes the given token pair. Succeeds even when the tokens are
	// already gone.
	Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) error

	// Refresh rotates a refresh token into a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)

	// VerifyAccessToken validates signature, expiry, revocation state and the
	// account's ban status, and returns the claims.
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)

	// GetProfile returns the account for the given user ID.
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// UpdateProfile changes display name and/or email. Nil fields are kept.
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, email *string) error

	// GetPreferences returns the stored preferences blob.
	GetPreferences(ctx context.Context, userID uuid.UUID) (json.RawMessage, error)

	// UpdatePreferences replaces the stored preferences blob.
	UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences json.RawMessage) error

	// ChangePassword verifies the current password, stores a new hash and
	// revokes all live sessions.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// BanUser bans the account and deletes its live tokens.
	BanUser(ctx context.Context, userID uuid.UUID) error

	// UnbanUser lifts a ban.
	UnbanUser(ctx context.Context, userID uuid.UUID) error
}

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(userRepo interfaces.UserRepository, tokenRepo interfaces.TokenRepository, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
		logger:    logger.Named("AuthService"),
	}
}

// Register creates a new user account.
func (s *authServiceImpl) Register(ctx context.Context, username, email, password, displayName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", models.ErrInvalidCredentials)
	}
	if username == "" || password == "" {
		s.logger.Warn("Registration attempt with empty username or password", logFields...)
		return nil, models.ErrInvalidCredentials
	}
	if displayName == "" {
		displayName = username
	}

	salt, err := generateSalt()
	if err != nil {
		s.logger.Error("Failed to generate password salt", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashPassword(password, salt),
		PasswordSalt: base64.RawStdEncoding.EncodeToString(salt),
		Role:         models.RoleWriter,
		Preferences:  json.RawMessage(`{}`),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Uniqueness errors already carry the right sentinel from the repository.
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and returns token details.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*models.TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Info("Login attempt", zap.String("email", email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("email", email))
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !verifyPassword(password, user.PasswordHash, user.PasswordSalt) {
		s.logger.Warn("Login failed: invalid password", zap.String("userID", user.ID.String()))
		return nil, models.ErrInvalidCredentials
	}

	if user.IsBanned {
		// Same error as wrong credentials so the ban is not disclosed.
		s.logger.Warn("Login failed: user is banned", zap.String("userID", user.ID.String()))
		return nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokens(user)
	if err != nil {
		s.logger.Error("Failed to create tokens during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to create tokens: %w", err)
	}

	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		s.logger.Error("Failed to save token details during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to save token details: %w", err)
	}

	s.logger.Info("User logged in successfully", zap.String("userID", user.ID.String()))
	return td, nil
}

// Logout removes the access and refresh tokens from the store.
func (s *authServiceImpl) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Debug("Attempting to logout user by deleting tokens")

	deletedCount, err := s.tokenRepo.DeleteTokens(ctx, userID, accessUUID, refreshUUID)
	if err != nil {
		// Tokens may already be expired; the logout still counts.
		log.Error("Failed to delete tokens during logout", zap.Error(err))
	}

	if deletedCount > 0 {
		log.Info("Tokens deleted successfully during logout", zap.Int64("deletedCount", deletedCount))
	} else {
		log.Info("No tokens found to delete during logout (already expired or logged out)")
	}
	return nil
}

// Refresh issues a new token pair based on a valid refresh token.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error) {
	s.logger.Info("Token refresh attempt")
	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		return nil, err
	}

	refreshUUID := claims.ID
	log := s.logger.With(zap.String("userID", claims.UserID.String()), zap.String("refreshUUID", refreshUUID))

	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, refreshUUID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			log.Warn("Refresh attempt with invalid/revoked token in store")
			return nil, models.ErrTokenNotFound
		}
		log.Error("Error checking refresh token existence via repository", zap.Error(err))
		return nil, fmt.Errorf("error checking refresh token existence: %w", err)
	}
	if userID != claims.UserID {
		log.Error("Refresh token user ID mismatch", zap.String("repoUserID", userID.String()))
		return nil, models.ErrTokenInvalid
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("User from valid refresh token not found in DB")
			return nil, models.ErrTokenInvalid
		}
		log.Error("Failed to get user during token refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to get user for refresh: %w", err)
	}
	if user.IsBanned {
		log.Warn("Refresh attempt for a banned user, revoking tokens")
		if _, delErr := s.tokenRepo.DeleteTokensByUserID(ctx, user.ID); delErr != nil {
			log.Error("Failed to delete tokens of banned user", zap.Error(delErr))
		}
		return nil, models.ErrTokenInvalid
	}

	newTd, err := s.createTokens(user)
	if err != nil {
		log.Error("Failed to create new tokens during refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to create new tokens during refresh: %w", err)
	}

	// Rotate: the old refresh UUID must not mint another pair.
	if delErr := s.tokenRepo.DeleteRefreshUUID(ctx, userID, refreshUUID); delErr != nil {
		log.Error("Non-critical: Failed to delete old refresh token during refresh", zap.Error(delErr))
	}

	if err := s.tokenRepo.SetToken(ctx, userID, newTd); err != nil {
		log.Error("Failed to save new token details during refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to save new token details: %w", err)
	}

	log.Info("Token refreshed successfully")
	return newTd, nil
}

// VerifyAccessToken parses an access token, checks it against the store and
// validates the account state.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	s.logger.Debug("Verifying access token")
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	accessUUID := claims.ID
	if _, err := s.tokenRepo.GetUserIDByAccessUUID(ctx, accessUUID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Debug("Access token not found in store (revoked/logged out)", zap.String("accessUUID", accessUUID))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking access token existence via repository", zap.Error(err), zap.String("accessUUID", accessUUID))
		return nil, fmt.Errorf("error checking access token existence: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("User from valid token not found in DB", zap.String("userID", claims.UserID.String()))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Failed to get user by ID during token validation", zap.Error(err))
		return nil, fmt.Errorf("failed to get user for validation: %w", err)
	}
	if user.IsBanned {
		s.logger.Warn("Token validation failed: user is banned", zap.String("userID", user.ID.String()))
		return nil, models.ErrTokenInvalid
	}

	// Role may have changed since the token was minted; the stored one wins.
	claims.Role = user.Role
	return claims, nil
}

// GetProfile returns the account for the given user ID.
func (s *authServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// UpdateProfile changes display name and/or email.
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, email *string) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	if email != nil {
		*email = strings.ToLower(strings.TrimSpace(*email))
		if _, err := mail.ParseAddress(*email); err != nil {
			log.Warn("Profile update with invalid email format", zap.Error(err))
			return fmt.Errorf("invalid email format: %w", models.ErrInvalidInput)
		}
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, displayName, email); err != nil {
		return err
	}
	log.Info("Profile updated successfully")
	return nil
}

// GetPreferences returns the stored preferences blob.
func (s *authServiceImpl) GetPreferences(ctx context.Context, userID uuid.UUID) (json.RawMessage, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Preferences) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return user.Preferences, nil
}

// UpdatePreferences replaces the stored preferences blob.
func (s *authServiceImpl) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences json.RawMessage) error {
	if !json.Valid(preferences) {
		return models.ErrInvalidInput
	}
	return s.userRepo.UpdatePreferences(ctx, userID, preferences)
}

// ChangePassword verifies the current password and rotates the stored hash.
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Info("Attempting to change user password")

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !verifyPassword(currentPassword, user.PasswordHash, user.PasswordSalt) {
		log.Warn("Password change failed: current password mismatch")
		return models.ErrInvalidCredentials
	}
	if newPassword == "" {
		return models.ErrInvalidInput
	}

	salt, err := generateSalt()
	if err != nil {
		log.Error("Failed to generate password salt", zap.Error(err))
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	newHash := hashPassword(newPassword, salt)
	if err := s.userRepo.UpdatePassword(ctx, userID, newHash, base64.RawStdEncoding.EncodeToString(salt)); err != nil {
		return err
	}

	log.Info("Password updated, invalidating live sessions")
	deletedCount, delErr := s.tokenRepo.DeleteTokensByUserID(ctx, userID)
	if delErr != nil {
		log.Error("Failed to delete user tokens after password change", zap.Error(delErr))
	} else {
		log.Info("Deleted user tokens after password change", zap.Int64("deletedCount", deletedCount))
	}
	return nil
}

// BanUser bans the account and deletes its live tokens.
func (s *authServiceImpl) BanUser(ctx context.Context, userID uuid.UUID) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Info("Attempting to ban user")
	if err := s.userRepo.SetUserBanStatus(ctx, userID, true); err != nil {
		log.Error("Failed to set user ban status", zap.Error(err), zap.Bool("isBanned", true))
		return err
	}
	log.Info("User banned successfully")

	deletedCount, delErr := s.tokenRepo.DeleteTokensByUserID(ctx, userID)
	if delErr != nil {
		log.Error("Failed to delete user tokens after ban", zap.Error(delErr))
	} else {
		log.Info("Deleted user tokens after ban", zap.Int64("deletedCount", deletedCount))
	}
	return nil
}

// UnbanUser lifts a ban.
func (s *authServiceImpl) UnbanUser(ctx context.Context, userID uuid.UUID) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Info("Attempting to unban user")
	if err := s.userRepo.SetUserBanStatus(ctx, userID, false); err != nil {
		log.Error("Failed to set user ban status", zap.Error(err), zap.Bool("isBanned", false))
		return err
	}
	log.Info("User unbanned successfully")
	return nil
}

// --- Helper functions ---

func generateSalt() ([]byte, error) {
	salt := make([]byte, passwordSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// hashPassword derives a PBKDF2-SHA256 key and encodes it as base64.
func hashPassword(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return base64.RawStdEncoding.EncodeToString(key)
}

// verifyPassword re-derives the key from the stored salt and compares in
// constant time.
func verifyPassword(password, storedHash, storedSalt string) bool {
	salt, err := base64.RawStdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return subtle.ConstantTimeCompare(key, expected) == 1
}

// parseToken validates the signature and maps jwt parse failures onto the
// model sentinels.
func (s *authServiceImpl) parseToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Token verification failed: expired")
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			s.logger.Warn("Token verification failed: malformed")
			return nil, models.ErrTokenMalformed
		}
		s.logger.Error("Failed to parse token", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		s.logger.Warn("Token verification failed (invalid claims type or signature)")
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// createTokens generates a new access and refresh token pair for a user.
func (s *authServiceImpl) createTokens(user *models.User) (*models.TokenDetails, error) {
	now := time.Now()
	td := &models.TokenDetails{
		AccessUUID:  uuid.New().String(),
		RefreshUUID: uuid.New().String(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	acClaims := &models.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.AccessUUID,
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.AtExpires, 0)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	var err error
	td.AccessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, acClaims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rcClaims := &models.Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.RefreshUUID,
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.RtExpires, 0)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	td.RefreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, rcClaims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return td, nil
}
