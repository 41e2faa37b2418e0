package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/config"
	"fictures-server/internal/middleware"
	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
)

func get(r *gin.Engine, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimitRequests: 2, RateLimitWindow: time.Minute}

	r := gin.New()
	r.GET("/api/stories", middleware.RateLimit(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/api/stories", "203.0.113.9:1000", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/stories", "203.0.113.9:1001", nil).Code)

	w := get(r, "/api/stories", "203.0.113.9:1002", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, models.ErrCodeRateLimited, decodeError(t, w).Code)

	// A different client address keeps its own window.
	assert.Equal(t, http.StatusOK, get(r, "/api/stories", "203.0.113.10:1000", nil).Code)
}

func TestRateLimitByPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimitRequests: 1, RateLimitWindow: time.Minute}

	auth := new(mocks.AuthService)
	keys := new(mocks.APIKeyService)
	auth.On("VerifyAccessToken", mock.Anything, "token-a").
		Return(&models.Claims{UserID: uuid.New(), Role: models.RoleWriter}, nil)
	auth.On("VerifyAccessToken", mock.Anything, "token-b").
		Return(&models.Claims{UserID: uuid.New(), Role: models.RoleWriter}, nil)

	r := gin.New()
	r.GET("/api/stories",
		middleware.RequireAuth(auth, keys, zap.NewNop()),
		middleware.RateLimit(cfg),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	// Both users call from the same address; only the second call of the
	// same user trips the limiter.
	const addr = "203.0.113.9:1000"
	assert.Equal(t, http.StatusOK, get(r, "/api/stories", addr, map[string]string{"Authorization": "Bearer token-a"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/stories", addr, map[string]string{"Authorization": "Bearer token-a"}).Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/stories", addr, map[string]string{"Authorization": "Bearer token-b"}).Code)
}

func TestRateLimitExemptPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimitRequests: 1, RateLimitWindow: time.Minute}

	r := gin.New()
	limit := middleware.RateLimit(cfg)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/health", limit, ok)
	r.GET("/api/community/events", limit, ok)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "/health", "203.0.113.9:1000", nil).Code)
		assert.Equal(t, http.StatusOK, get(r, "/api/community/events", "203.0.113.9:1000", nil).Code)
	}
}
