package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

const (
	// principalKey is the gin context key the authenticated principal is
	// stored under.
	principalKey = "authPrincipal"

	apiKeyHeader = "x-api-key"
	bearerPrefix = "bearer"
	apiKeyMarker = "fk_"
)

// principalCtxKey keys the principal in the request context, so code that
// only sees the http.Request (rate limiter, stream handlers) can find it.
type principalCtxKey struct{}

// Principal is the resolved identity of a request: either a session token
// or an API key. API-key principals have no role and carry the key's
// explicit scope list; session principals derive scopes from the user role.
type Principal struct {
	UserID     uuid.UUID
	Role       string
	Scopes     []string
	AccessUUID string
	APIKeyID   string
}

// IsAPIKey reports whether the principal authenticated with an API key.
func (p *Principal) IsAPIKey() bool {
	return p.APIKeyID != ""
}

// RequireAuth authenticates the request from either a bearer JWT or an API
// key (x-api-key header, or a bearer token with the key prefix) and stores
// the principal for downstream handlers.
func RequireAuth(auth service.AuthService, keys service.APIKeyService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(apiKeyHeader); key != "" {
			authenticateAPIKey(c, keys, key, logger)
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortError(c, http.StatusUnauthorized, models.ErrCodeTokenInvalid, "missing credentials")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != bearerPrefix {
			abortError(c, http.StatusUnauthorized, models.ErrCodeTokenInvalid, "malformed authorization header")
			return
		}
		token := strings.TrimSpace(parts[1])

		if strings.HasPrefix(token, apiKeyMarker) {
			authenticateAPIKey(c, keys, token, logger)
			return
		}
		authenticateSession(c, auth, token, logger)
	}
}

func authenticateSession(c *gin.Context, auth service.AuthService, token string, logger *zap.Logger) {
	claims, err := auth.VerifyAccessToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTokenExpired):
			abortError(c, http.StatusUnauthorized, models.ErrCodeTokenExpired, "token expired")
		case errors.Is(err, models.ErrTokenInvalid), errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenNotFound):
			abortError(c, http.StatusUnauthorized, models.ErrCodeTokenInvalid, "invalid token")
		default:
			logger.Error("Unexpected token verification error", zap.Error(err))
			abortError(c, http.StatusInternalServerError, models.ErrCodeInternal, "token verification failed")
		}
		return
	}

	setPrincipal(c, &Principal{
		UserID:     claims.UserID,
		Role:       claims.Role,
		Scopes:     models.ScopesForRole(claims.Role),
		AccessUUID: claims.ID,
	})
	c.Next()
}

func authenticateAPIKey(c *gin.Context, keys service.APIKeyService, plaintext string, logger *zap.Logger) {
	key, err := keys.Verify(c.Request.Context(), plaintext)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAPIKeyInvalid), errors.Is(err, models.ErrAPIKeyExpired), errors.Is(err, models.ErrAPIKeyRevoked):
			abortError(c, http.StatusUnauthorized, models.ErrCodeAPIKeyInvalid, "invalid api key")
		default:
			logger.Error("Unexpected api key verification error", zap.Error(err))
			abortError(c, http.StatusInternalServerError, models.ErrCodeInternal, "api key verification failed")
		}
		return
	}

	setPrincipal(c, &Principal{
		UserID:   key.UserID,
		Scopes:   key.Scopes,
		APIKeyID: key.ID,
	})
	c.Next()
}

// RequireSession rejects API-key principals. Key management and session
// operations stay with interactive logins, so a leaked key cannot manage
// keys or sessions.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			abortError(c, http.StatusUnauthorized, models.ErrCodeTokenInvalid, "missing credentials")
			return
		}
		if p.IsAPIKey() {
			abortError(c, http.StatusForbidden, models.ErrCodeForbidden, "endpoint requires a session token")
			return
		}
		c.Next()
	}
}

// RequireScope lets the request through only when the principal's scope set
// satisfies the required scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			abortError(c, http.StatusUnauthorized, models.ErrCodeTokenInvalid, "missing credentials")
			return
		}
		if !models.HasScope(p.Scopes, scope) {
			abortError(c, http.StatusForbidden, models.ErrCodeScopeMissing, "missing scope "+scope)
			return
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
	ctx := context.WithValue(c.Request.Context(), principalCtxKey{}, p)
	c.Request = c.Request.WithContext(ctx)
}

// CurrentPrincipal returns the authenticated principal, or nil when the
// request did not pass RequireAuth.
func CurrentPrincipal(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// PrincipalFromContext reads the principal from a plain request context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Code: code, Message: message})
}
