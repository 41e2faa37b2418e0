package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/handler"
	"fictures-server/internal/middleware"
	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
)

func newAPIKeyRig(t *testing.T) (*gin.Engine, *mocks.AuthService, *mocks.APIKeyService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := new(mocks.AuthService)
	keys := new(mocks.APIKeyService)

	r := gin.New()
	h := handler.NewAPIKeyHandler(keys, zap.NewNop())
	requireAuth := middleware.RequireAuth(auth, keys, zap.NewNop())
	h.RegisterRoutes(r.Group("/api", requireAuth))
	return r, auth, keys
}

func TestCreateAPIKeyEndpoint(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		r, auth, keys := newAPIKeyRig(t)
		headers := sessionHeader(auth, userID, models.RoleWriter, "session-token", "access-jti")
		keys.On("Create", mock.Anything, userID, "CI publisher",
			[]string{models.ScopeStoriesRead, models.ScopeStoriesPublish}, (*time.Time)(nil)).
			Return(&models.APIKey{
				ID:        "key-1",
				UserID:    userID,
				Name:      "CI publisher",
				KeyPrefix: "fk_lookup12",
				Scopes:    []string{models.ScopeStoriesRead, models.ScopeStoriesPublish},
				IsActive:  true,
			}, "fk_lookup1234567890secret", nil).Once()

		w := doJSON(r, http.MethodPost, "/api/api-keys", gin.H{
			"name":   "CI publisher",
			"scopes": []string{"stories:read", "stories:publish"},
		}, headers)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp struct {
			Key       models.APIKey `json:"key"`
			Plaintext string        `json:"plaintext"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "key-1", resp.Key.ID)
		assert.Equal(t, "fk_lookup1234567890secret", resp.Plaintext)
		keys.AssertExpectations(t)
	})

	t.Run("Unknown scope is rejected", func(t *testing.T) {
		r, auth, keys := newAPIKeyRig(t)
		headers := sessionHeader(auth, userID, models.RoleWriter, "session-token", "access-jti")

		w := doJSON(r, http.MethodPost, "/api/api-keys", gin.H{
			"name":   "CI publisher",
			"scopes": []string{"stories:fly"},
		}, headers)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		keys.AssertNotCalled(t, "Create",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty scope list is rejected", func(t *testing.T) {
		r, auth, keys := newAPIKeyRig(t)
		headers := sessionHeader(auth, userID, models.RoleWriter, "session-token", "access-jti")

		w := doJSON(r, http.MethodPost, "/api/api-keys", gin.H{
			"name":   "CI publisher",
			"scopes": []string{},
		}, headers)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		keys.AssertNotCalled(t, "Create",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("API key cannot mint keys", func(t *testing.T) {
		r, _, keys := newAPIKeyRig(t)
		keys.On("Verify", mock.Anything, "fk_lookup1234567890secret").Return(&models.APIKey{
			ID:     "key-1",
			UserID: userID,
			Scopes: models.AllScopes,
		}, nil).Once()

		w := doJSON(r, http.MethodPost, "/api/api-keys", gin.H{
			"name":   "escalation",
			"scopes": []string{"admin:all"},
		}, map[string]string{"X-Api-Key": "fk_lookup1234567890secret"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		keys.AssertNotCalled(t, "Create",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListAPIKeysEndpoint(t *testing.T) {
	userID := uuid.New()

	r, auth, keys := newAPIKeyRig(t)
	headers := sessionHeader(auth, userID, models.RoleWriter, "session-token", "access-jti")
	keys.On("List", mock.Anything, userID).Return([]models.APIKey{
		{ID: "key-1", UserID: userID, Name: "CI publisher", KeyPrefix: "fk_lookup12"},
		{ID: "key-2", UserID: userID, Name: "Stats reader", KeyPrefix: "fk_stats456"},
	}, nil).Once()

	w := doJSON(r, http.MethodGet, "/api/api-keys", nil, headers)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []models.APIKey `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "CI publisher", resp.Data[0].Name)
	keys.AssertExpectations(t)
}

func TestRevokeAPIKeyEndpoint(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		r, auth, keys := newAPIKeyRig(t)
		headers := sessionHeader(auth, userID, models.RoleWriter, "session-token", "access-jti")
		keys.On("Revoke", mock.Anything, userID, "key-1").Return(nil).Once()

		w := doJSON(r, http.MethodDelete, "/api/api-keys/key-1", nil, headers)

		assert.Equal(t, http.StatusNoContent, w.Code)
		keys.AssertExpectations(t)
	})

	t.Run("Unknown key", func(t *testing.T) {
		r, auth, keys := newAPIKeyRig(t)
		headers := sessionHeader(auth, userID, models.RoleWriter, "session-token", "access-jti")
		keys.On("Revoke", mock.Anything, userID, "key-9").Return(models.ErrAPIKeyNotFound).Once()

		w := doJSON(r, http.MethodDelete, "/api/api-keys/key-9", nil, headers)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, models.ErrCodeNotFound, errorCode(t, w))
	})
}
