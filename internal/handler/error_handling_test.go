package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fictures-server/internal/models"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"Invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized, models.ErrCodeWrongCredentials},
		{"Duplicate username", models.ErrUserAlreadyExists, http.StatusConflict, models.ErrCodeDuplicateUser},
		{"Duplicate email", models.ErrEmailAlreadyExists, http.StatusConflict, models.ErrCodeDuplicateEmail},
		{"Banned user", models.ErrUserBanned, http.StatusForbidden, models.ErrCodeUserBanned},
		{"Expired token", models.ErrTokenExpired, http.StatusUnauthorized, models.ErrCodeTokenExpired},
		{"Revoked token", models.ErrTokenNotFound, http.StatusUnauthorized, models.ErrCodeTokenInvalid},
		{"Missing API key", models.ErrAPIKeyNotFound, http.StatusNotFound, models.ErrCodeNotFound},
		{"Expired API key", models.ErrAPIKeyExpired, http.StatusUnauthorized, models.ErrCodeAPIKeyInvalid},
		{"Wrapped story not found", fmt.Errorf("load story: %w", models.ErrStoryNotFound), http.StatusNotFound, models.ErrCodeNotFound},
		{"Scene not found", models.ErrSceneNotFound, http.StatusNotFound, models.ErrCodeNotFound},
		{"Already liked", models.ErrAlreadyLiked, http.StatusConflict, models.ErrCodeConflict},
		{"Already published", models.ErrAlreadyPublished, http.StatusConflict, models.ErrCodeConflict},
		{"Schedule in the past", models.ErrScheduleInPast, http.StatusBadRequest, models.ErrCodeValidation},
		{"Reply to another story", models.ErrReplyWrongStory, http.StatusBadRequest, models.ErrCodeValidation},
		{"Forbidden", models.ErrForbidden, http.StatusForbidden, models.ErrCodeForbidden},
		{"Provider down", models.ErrProviderUnavailable, http.StatusBadGateway, models.ErrCodeProviderFailure},
		{"Generation failed", models.ErrGenerationFailed, http.StatusBadGateway, models.ErrCodeProviderFailure},
		{"Wrapped invalid input", fmt.Errorf("title: %w", models.ErrInvalidInput), http.StatusBadRequest, models.ErrCodeBadRequest},
		{"Unknown error", errors.New("boom"), http.StatusInternalServerError, models.ErrCodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleServiceError(c, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantCode, resp.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestParseUUIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Valid", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		want := uuid.New()
		c.Params = gin.Params{{Key: "storyId", Value: want.String()}}

		got, ok := parseUUIDParam(c, "storyId")
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("Malformed", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "storyId", Value: "not-a-uuid"}}

		_, ok := parseUUIDParam(c, "storyId")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.ErrCodeBadRequest, resp.Code)
		assert.Contains(t, resp.Message, "storyId")
	})
}
