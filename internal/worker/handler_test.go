package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/ai"
	"fictures-server/internal/config"
	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
	"fictures-server/internal/worker"
)

const placeholderURL = "https://cdn.example.com/placeholders/scene.png"

type handlerMocks struct {
	text    *mocks.TextClient
	image   *mocks.ImageClient
	results *mocks.GenerationResultRepository
	events  *mocks.EventPublisher
}

func newTaskHandler(t *testing.T, maxAttempts int) (*worker.TaskHandler, *handlerMocks) {
	t.Helper()
	m := &handlerMocks{
		text:    new(mocks.TextClient),
		image:   new(mocks.ImageClient),
		results: new(mocks.GenerationResultRepository),
		events:  new(mocks.EventPublisher),
	}
	cfg := &config.WorkerConfig{PlaceholderImageURL: placeholderURL}
	cfg.AI.MaxAttempts = maxAttempts
	cfg.AI.RetryBaseDelay = time.Millisecond
	return worker.NewTaskHandler(m.text, m.image, m.results, m.events, cfg, zap.NewNop()), m
}

func TestHandleSceneDraft(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()
	payload := models.GenerationTaskPayload{
		TaskID:      uuid.NewString(),
		UserID:      userID,
		StoryID:     &storyID,
		Kind:        models.GenerationKindSceneDraft,
		Prompt:      "Draft the rooftop chase.",
		MaxTokens:   256,
		Temperature: 0.8,
	}
	providerErr := errors.New("provider timeout")

	t.Run("Success", func(t *testing.T) {
		h, m := newTaskHandler(t, 1)

		m.text.On("GenerateText", mock.Anything, userID.String(), models.TextGenerationRequest{
			Prompt:      payload.Prompt,
			MaxTokens:   payload.MaxTokens,
			Temperature: payload.Temperature,
		}).Return(&ai.TextResult{
			Text:  "She leapt between the chimneys.",
			Model: "gpt-4o-mini",
			Usage: ai.Usage{PromptTokens: 12, CompletionTokens: 9, TotalTokens: 21},
		}, nil).Once()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.ID == payload.TaskID &&
				r.Status == models.GenerationStatusCompleted &&
				r.GeneratedText == "She leapt between the chimneys." &&
				r.Model == "gpt-4o-mini" &&
				r.PromptTokens == 12 && r.CompletionTokens == 9
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationCompleted, mock.MatchedBy(func(e models.GenerationEvent) bool {
			return e.TaskID == payload.TaskID &&
				e.UserID == userID.String() &&
				e.Kind == "scene_draft" &&
				e.StoryID == storyID.String() &&
				e.Error == ""
		})).Return(nil).Once()

		require.NoError(t, h.Handle(ctx, payload))
		m.results.AssertExpectations(t)
		m.events.AssertExpectations(t)
	})

	t.Run("Transient provider errors are retried", func(t *testing.T) {
		h, m := newTaskHandler(t, 3)

		m.text.On("GenerateText", mock.Anything, userID.String(), mock.Anything).
			Return(nil, providerErr).Twice()
		m.text.On("GenerateText", mock.Anything, userID.String(), mock.Anything).
			Return(&ai.TextResult{Text: "Third time lucky.", Model: "gpt-4o-mini"}, nil).Once()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusCompleted && r.GeneratedText == "Third time lucky."
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationCompleted, mock.Anything).Return(nil).Once()

		require.NoError(t, h.Handle(ctx, payload))
		m.text.AssertExpectations(t)
	})

	t.Run("Gives up after the attempt budget", func(t *testing.T) {
		h, m := newTaskHandler(t, 2)

		m.text.On("GenerateText", mock.Anything, userID.String(), mock.Anything).
			Return(nil, providerErr).Twice()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusFailed && r.ErrorDetails != ""
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationFailed, mock.MatchedBy(func(e models.GenerationEvent) bool {
			return e.TaskID == payload.TaskID && e.Error != ""
		})).Return(nil).Once()

		err := h.Handle(ctx, payload)
		assert.ErrorIs(t, err, providerErr)
		m.text.AssertExpectations(t)
		m.results.AssertExpectations(t)
	})

	t.Run("Invalid input is not retried", func(t *testing.T) {
		h, m := newTaskHandler(t, 3)

		m.text.On("GenerateText", mock.Anything, userID.String(), mock.Anything).
			Return(nil, models.ErrInvalidInput).Once()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusFailed
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationFailed, mock.Anything).Return(nil).Once()

		err := h.Handle(ctx, payload)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		m.text.AssertNumberOfCalls(t, "GenerateText", 1)
	})

	t.Run("Save failure surfaces even when generation succeeded", func(t *testing.T) {
		h, m := newTaskHandler(t, 1)

		m.text.On("GenerateText", mock.Anything, userID.String(), mock.Anything).
			Return(&ai.TextResult{Text: "Done.", Model: "gpt-4o-mini"}, nil).Once()
		m.results.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		err := h.Handle(ctx, payload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save generation result")
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Publish failure does not fail the task", func(t *testing.T) {
		h, m := newTaskHandler(t, 1)

		m.text.On("GenerateText", mock.Anything, userID.String(), mock.Anything).
			Return(&ai.TextResult{Text: "Done.", Model: "gpt-4o-mini"}, nil).Once()
		m.results.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationCompleted, mock.Anything).
			Return(errors.New("redis down")).Once()

		require.NoError(t, h.Handle(ctx, payload))
	})
}

func TestHandleImageTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	payload := models.GenerationTaskPayload{
		TaskID: uuid.NewString(),
		UserID: userID,
		Kind:   models.GenerationKindCoverImage,
		Prompt: "A lighthouse of brass and glass.",
		Width:  1664,
		Height: 928,
	}

	t.Run("Success", func(t *testing.T) {
		h, m := newTaskHandler(t, 1)

		m.image.On("GenerateImage", mock.Anything, models.ImageGenerationRequest{
			Prompt: payload.Prompt,
			Width:  payload.Width,
			Height: payload.Height,
		}).Return(&models.ImageGenerationResponse{
			ImageURL: "https://images.example.com/cover.png",
			Model:    "flux-schnell",
		}, nil).Once()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusCompleted &&
				r.ImageURL == "https://images.example.com/cover.png" &&
				r.Model == "flux-schnell"
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationCompleted, mock.Anything).Return(nil).Once()

		require.NoError(t, h.Handle(ctx, payload))
		m.results.AssertExpectations(t)
	})

	t.Run("Provider failure completes with the placeholder", func(t *testing.T) {
		h, m := newTaskHandler(t, 1)

		m.image.On("GenerateImage", mock.Anything, mock.Anything).
			Return(nil, models.ErrProviderUnavailable).Once()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusCompleted &&
				r.ImageURL == placeholderURL &&
				r.Model == models.PlaceholderModel
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationCompleted, mock.Anything).Return(nil).Once()

		require.NoError(t, h.Handle(ctx, payload))
		m.results.AssertExpectations(t)
	})

	t.Run("Invalid input fails the task", func(t *testing.T) {
		h, m := newTaskHandler(t, 1)

		m.image.On("GenerateImage", mock.Anything, mock.Anything).
			Return(nil, models.ErrInvalidInput).Once()
		m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusFailed && r.ImageURL == ""
		})).Return(nil).Once()
		m.events.On("Publish", mock.Anything, models.EventTypeGenerationFailed, mock.Anything).Return(nil).Once()

		err := h.Handle(ctx, payload)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestHandleUnknownKind(t *testing.T) {
	h, m := newTaskHandler(t, 1)

	payload := models.GenerationTaskPayload{
		TaskID: uuid.NewString(),
		UserID: uuid.New(),
		Kind:   models.GenerationKind("interpretive_dance"),
		Prompt: "Dance the third act.",
	}
	m.results.On("Save", mock.Anything, mock.MatchedBy(func(r *models.GenerationResult) bool {
		return r.Status == models.GenerationStatusFailed && r.ErrorDetails != ""
	})).Return(nil).Once()
	m.events.On("Publish", mock.Anything, models.EventTypeGenerationFailed, mock.Anything).Return(nil).Once()

	err := h.Handle(context.Background(), payload)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	m.text.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything)
	m.image.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
	m.results.AssertExpectations(t)
}
