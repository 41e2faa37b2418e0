package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fictures-server/internal/models"
)

func TestHasScope(t *testing.T) {
	cases := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"Exact match", []string{models.ScopeStoriesRead}, models.ScopeStoriesRead, true},
		{"Missing scope", []string{models.ScopeStoriesRead}, models.ScopeChaptersRead, false},
		{"Write satisfies read", []string{models.ScopeStoriesWrite}, models.ScopeStoriesRead, true},
		{"Read does not satisfy write", []string{models.ScopeStoriesRead}, models.ScopeStoriesWrite, false},
		{"Write of another resource", []string{models.ScopeChaptersWrite}, models.ScopeStoriesRead, false},
		{"Admin satisfies everything", []string{models.ScopeAdminAll}, models.ScopeStoriesDelete, true},
		{"Admin satisfies reads", []string{models.ScopeAdminAll}, models.ScopeAnalyticsRead, true},
		{"Empty grant", nil, models.ScopeStoriesRead, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, models.HasScope(tc.granted, tc.required))
		})
	}
}

func TestScopesForRole(t *testing.T) {
	t.Run("Manager holds every scope", func(t *testing.T) {
		scopes := models.ScopesForRole(models.RoleManager)
		assert.ElementsMatch(t, models.AllScopes, scopes)
	})

	t.Run("Writer cannot delete, publish or administer", func(t *testing.T) {
		scopes := models.ScopesForRole(models.RoleWriter)
		assert.Contains(t, scopes, models.ScopeStoriesWrite)
		assert.Contains(t, scopes, models.ScopeAIUse)
		assert.NotContains(t, scopes, models.ScopeStoriesDelete)
		assert.NotContains(t, scopes, models.ScopeStoriesPublish)
		assert.NotContains(t, scopes, models.ScopeChaptersDelete)
		assert.NotContains(t, scopes, models.ScopeAdminAll)
	})

	t.Run("Reader is read only", func(t *testing.T) {
		scopes := models.ScopesForRole(models.RoleReader)
		assert.Contains(t, scopes, models.ScopeStoriesRead)
		for _, s := range scopes {
			assert.NotContains(t, s, ":write", "reader scope %q must be read only", s)
		}
		assert.NotContains(t, scopes, models.ScopeAIUse)
	})

	t.Run("Unknown role falls back to reader", func(t *testing.T) {
		assert.Equal(t, models.ScopesForRole(models.RoleReader), models.ScopesForRole("intern"))
	})
}

func TestValidScope(t *testing.T) {
	assert.True(t, models.ValidScope(models.ScopeCommunityWrite))
	assert.False(t, models.ValidScope("stories:frobnicate"))
	assert.False(t, models.ValidScope(""))
}

func TestChannelForEvent(t *testing.T) {
	cases := map[string]string{
		models.EventTypeStoryPublished:      models.ChannelStoryEvents,
		models.EventTypeChapterPublished:    models.ChannelStoryEvents,
		models.EventTypeCommentCreated:      models.ChannelSocialEvents,
		models.EventTypeCommentReplied:      models.ChannelSocialEvents,
		models.EventTypeStoryLiked:          models.ChannelSocialEvents,
		models.EventTypeGenerationCompleted: models.ChannelGenerationEvents,
		models.EventTypeGenerationFailed:    models.ChannelGenerationEvents,
	}
	for eventType, channel := range cases {
		assert.Equal(t, channel, models.ChannelForEvent(eventType), "event %s", eventType)
	}
	assert.Len(t, models.AllEventChannels(), 3)
}

func TestGenerationRequestDefaults(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		req := models.TextGenerationRequest{Prompt: "p"}
		req.ApplyDefaults()
		assert.Equal(t, models.TextMaxTokensDefault, req.MaxTokens)
		assert.InDelta(t, models.TextTemperatureDefault, req.Temperature, 0.001)
		assert.InDelta(t, models.TextTopPDefault, req.TopP, 0.001)

		explicit := models.TextGenerationRequest{Prompt: "p", MaxTokens: 64, Temperature: 1.2, TopP: 0.5}
		explicit.ApplyDefaults()
		assert.Equal(t, 64, explicit.MaxTokens)
		assert.InDelta(t, 1.2, explicit.Temperature, 0.001)
	})

	t.Run("Image", func(t *testing.T) {
		req := models.ImageGenerationRequest{Prompt: "p"}
		req.ApplyDefaults()
		assert.Equal(t, models.ImageWidthDefault, req.Width)
		assert.Equal(t, models.ImageHeightDefault, req.Height)
		assert.Equal(t, models.ImageStepsDefault, req.NumInferenceSteps)
		assert.InDelta(t, models.ImageGuidanceDefault, req.GuidanceScale, 0.001)

		explicit := models.ImageGenerationRequest{Prompt: "p", Width: 512, Height: 512}
		explicit.ApplyDefaults()
		assert.Equal(t, 512, explicit.Width)
	})
}
