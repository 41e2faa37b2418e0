package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/ai"
	"fictures-server/internal/config"
	"fictures-server/internal/mocks"
	"fictures-server/internal/models"
	"fictures-server/internal/service"
)

type generationServiceMocks struct {
	text    *mocks.TextClient
	image   *mocks.ImageClient
	results *mocks.GenerationResultRepository
	tasks   *mocks.TaskPublisher
}

func newGenerationService(t *testing.T) (service.GenerationService, *generationServiceMocks) {
	t.Helper()
	m := &generationServiceMocks{
		text:    new(mocks.TextClient),
		image:   new(mocks.ImageClient),
		results: new(mocks.GenerationResultRepository),
		tasks:   new(mocks.TaskPublisher),
	}
	cfg := &config.Config{
		AIClientType:        "openai",
		AIModel:             "gpt-4o-mini",
		ImageClientType:     "diffusion",
		AIImageModel:        "flux-schnell",
		PlaceholderImageURL: "https://cdn.example.com/placeholder.png",
	}
	svc := service.NewGenerationService(m.text, m.image, m.results, m.tasks, cfg, zap.NewNop())
	return svc, m
}

func TestGenerateText(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	req := models.TextGenerationRequest{Prompt: "Describe the clockwork moon."}

	t.Run("Maps the client result onto the response", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.text.On("GenerateText", ctx, userID.String(), req).Return(&ai.TextResult{
			Text:         "The moon ticked.",
			Model:        "gpt-4o-mini",
			FinishReason: "stop",
			Usage:        ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}, nil).Once()

		resp, err := svc.GenerateText(ctx, userID, req)
		require.NoError(t, err)
		assert.Equal(t, "The moon ticked.", resp.Text)
		assert.Equal(t, 15, resp.TokensUsed)
		assert.Equal(t, "stop", resp.FinishReason)
	})

	t.Run("Client errors are passed through", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.text.On("GenerateText", ctx, userID.String(), req).
			Return(nil, errors.New("provider 500")).Once()

		_, err := svc.GenerateText(ctx, userID, req)
		assert.Error(t, err)
	})
}

func TestGenerateImage(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	req := models.ImageGenerationRequest{Prompt: "clocktower at dusk"}

	t.Run("Provider success is returned as-is", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.image.On("GenerateImage", ctx, req).Return(&models.ImageGenerationResponse{
			ImageURL: "https://img.example.com/1.png",
			Model:    "flux-schnell",
			Width:    1664,
			Height:   928,
		}, nil).Once()

		resp, err := svc.GenerateImage(ctx, userID, req)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/1.png", resp.ImageURL)
	})

	t.Run("Provider failure degrades to the placeholder", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.image.On("GenerateImage", ctx, req).Return(nil, errors.New("diffusion server down")).Once()

		resp, err := svc.GenerateImage(ctx, userID, req)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/placeholder.png", resp.ImageURL)
		assert.Equal(t, models.PlaceholderModel, resp.Model)
		assert.Equal(t, models.ImageWidthDefault, resp.Width)
		assert.Equal(t, models.ImageHeightDefault, resp.Height)
	})

	t.Run("Bad input is not masked by the placeholder", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.image.On("GenerateImage", ctx, req).
			Return(nil, models.ErrInvalidInput).Once()

		_, err := svc.GenerateImage(ctx, userID, req)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}

func TestEnqueueTask(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()

	t.Run("Pending row is saved before the task is queued", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.results.On("Save", ctx, mock.MatchedBy(func(r *models.GenerationResult) bool {
			assert.Equal(t, models.GenerationStatusPending, r.Status)
			assert.Equal(t, userID, r.UserID)
			assert.NotEmpty(t, r.ID)
			return true
		})).Return(nil).Once()

		var queued models.GenerationTaskPayload
		m.tasks.On("PublishGenerationTask", ctx, mock.AnythingOfType("models.GenerationTaskPayload")).
			Run(func(args mock.Arguments) {
				queued = args.Get(1).(models.GenerationTaskPayload)
			}).
			Return(nil).Once()

		result, err := svc.EnqueueTask(ctx, userID, models.GenerationTaskPayload{
			Kind:    models.GenerationKindSceneDraft,
			Prompt:  "  Write the opening scene.  ",
			StoryID: &storyID,
		})
		require.NoError(t, err)
		assert.Equal(t, result.ID, queued.TaskID, "result and queue message must share the task id")
		assert.Equal(t, userID, queued.UserID)
		assert.Equal(t, "Write the opening scene.", queued.Prompt)
		m.tasks.AssertExpectations(t)
	})

	t.Run("Queue failure marks the row failed", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.results.On("Save", ctx, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusPending
		})).Return(nil).Once()
		m.tasks.On("PublishGenerationTask", ctx, mock.Anything).
			Return(errors.New("broker unreachable")).Once()
		m.results.On("Save", ctx, mock.MatchedBy(func(r *models.GenerationResult) bool {
			return r.Status == models.GenerationStatusFailed && r.ErrorDetails != ""
		})).Return(nil).Once()

		_, err := svc.EnqueueTask(ctx, userID, models.GenerationTaskPayload{
			Kind:   models.GenerationKindSceneImage,
			Prompt: "A brass owl.",
		})
		assert.Error(t, err)
		m.results.AssertExpectations(t)
	})

	t.Run("Unknown kind", func(t *testing.T) {
		svc, m := newGenerationService(t)

		_, err := svc.EnqueueTask(ctx, userID, models.GenerationTaskPayload{Kind: "interpretive_dance", Prompt: "x"})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		m.results.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Blank prompt", func(t *testing.T) {
		svc, _ := newGenerationService(t)

		_, err := svc.EnqueueTask(ctx, userID, models.GenerationTaskPayload{Kind: models.GenerationKindCoverImage, Prompt: "   "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}

func TestGetResult(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	taskID := uuid.NewString()
	result := &models.GenerationResult{ID: taskID, UserID: userID, Status: models.GenerationStatusCompleted}

	t.Run("Owner reads their result", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.results.On("GetByTaskID", ctx, taskID).Return(result, nil).Once()

		got, err := svc.GetResult(ctx, userID, taskID)
		require.NoError(t, err)
		assert.Equal(t, taskID, got.ID)
	})

	t.Run("Another user's task id reads as missing", func(t *testing.T) {
		svc, m := newGenerationService(t)

		m.results.On("GetByTaskID", ctx, taskID).Return(result, nil).Once()

		_, err := svc.GetResult(ctx, uuid.New(), taskID)
		assert.True(t, errors.Is(err, models.ErrGenerationNotFound))
	})
}

func TestListModels(t *testing.T) {
	svc, _ := newGenerationService(t)

	infos := svc.ListModels()
	require.Len(t, infos, 2)
	assert.Equal(t, "gpt-4o-mini", infos[0].ID)
	assert.Equal(t, "text", infos[0].Kind)
	assert.Equal(t, "flux-schnell", infos[1].ID)
	assert.Equal(t, "image", infos[1].Kind)
}
