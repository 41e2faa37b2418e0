// Package worker processes queued generation tasks: it calls the AI
// providers, persists the outcome and notifies the owner over the event bus.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"fictures-server/internal/ai"
	"fictures-server/internal/config"
	"fictures-server/internal/interfaces"
	"fictures-server/internal/messaging"
	"fictures-server/internal/models"
)

// TaskHandler executes one generation task end to end. Every task ends with
// a saved result row, completed or failed, so pollers never wait on a task
// the worker has already given up on.
type TaskHandler struct {
	textClient     ai.TextClient
	imageClient    ai.ImageClient
	resultRepo     interfaces.GenerationResultRepository
	events         interfaces.EventPublisher
	maxAttempts    int
	retryBaseDelay time.Duration
	placeholderURL string
	logger         *zap.Logger
}

// Compile-time check to ensure TaskHandler implements messaging.TaskHandler
var _ messaging.TaskHandler = (*TaskHandler)(nil)

// NewTaskHandler creates a new instance of TaskHandler.
func NewTaskHandler(
	textClient ai.TextClient,
	imageClient ai.ImageClient,
	resultRepo interfaces.GenerationResultRepository,
	events interfaces.EventPublisher,
	cfg *config.WorkerConfig,
	logger *zap.Logger,
) *TaskHandler {
	maxAttempts := cfg.AI.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &TaskHandler{
		textClient:     textClient,
		imageClient:    imageClient,
		resultRepo:     resultRepo,
		events:         events,
		maxAttempts:    maxAttempts,
		retryBaseDelay: cfg.AI.RetryBaseDelay,
		placeholderURL: cfg.PlaceholderImageURL,
		logger:         logger.Named("TaskHandler"),
	}
}

// Handle processes one task. The returned error tells the consumer the task
// is unrecoverable; the outcome row has already been saved by then.
func (h *TaskHandler) Handle(ctx context.Context, payload models.GenerationTaskPayload) error {
	kind := string(payload.Kind)
	tasksReceived.WithLabelValues(kind).Inc()
	start := time.Now()
	defer func() {
		taskDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("Processing generation task",
		zap.String("taskID", payload.TaskID),
		zap.String("kind", kind),
		zap.String("userID", payload.UserID.String()))

	result := &models.GenerationResult{
		ID:      payload.TaskID,
		UserID:  payload.UserID,
		StoryID: payload.StoryID,
		Kind:    payload.Kind,
		Status:  models.GenerationStatusCompleted,
	}

	var genErr error
	switch payload.Kind {
	case models.GenerationKindSceneDraft:
		genErr = h.generateText(ctx, payload, result)
	case models.GenerationKindSceneImage, models.GenerationKindCoverImage:
		genErr = h.generateImage(ctx, payload, result)
	default:
		tasksFailed.WithLabelValues(kind, "unknown_kind").Inc()
		genErr = fmt.Errorf("unknown generation kind %q: %w", payload.Kind, models.ErrInvalidInput)
	}

	if genErr != nil {
		result.Status = models.GenerationStatusFailed
		result.ErrorDetails = genErr.Error()
	}

	if err := h.saveAndNotify(result); err != nil {
		tasksFailed.WithLabelValues(kind, "save_error").Inc()
		if genErr != nil {
			return genErr
		}
		return err
	}

	if genErr != nil {
		return genErr
	}
	tasksSucceeded.WithLabelValues(kind).Inc()
	h.logger.Info("Generation task completed",
		zap.String("taskID", payload.TaskID),
		zap.String("model", result.Model),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (h *TaskHandler) generateText(ctx context.Context, payload models.GenerationTaskPayload, result *models.GenerationResult) error {
	req := models.TextGenerationRequest{
		Prompt:      payload.Prompt,
		MaxTokens:   payload.MaxTokens,
		Temperature: payload.Temperature,
	}

	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		res, err := h.textClient.GenerateText(ctx, payload.UserID.String(), req)
		if err == nil {
			result.GeneratedText = res.Text
			result.Model = res.Model
			result.PromptTokens = res.Usage.PromptTokens
			result.CompletionTokens = res.Usage.CompletionTokens
			return nil
		}

		lastErr = err
		h.logger.Warn("Text generation attempt failed",
			zap.Error(err),
			zap.String("taskID", payload.TaskID),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", h.maxAttempts))
		if errors.Is(err, models.ErrInvalidInput) {
			// Retrying cannot fix a bad request.
			tasksFailed.WithLabelValues(string(payload.Kind), "invalid_input").Inc()
			return err
		}
		if attempt == h.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			tasksFailed.WithLabelValues(string(payload.Kind), "canceled").Inc()
			return ctx.Err()
		case <-time.After(h.backoff(attempt)):
		}
	}

	tasksFailed.WithLabelValues(string(payload.Kind), "provider_error").Inc()
	return lastErr
}

func (h *TaskHandler) generateImage(ctx context.Context, payload models.GenerationTaskPayload, result *models.GenerationResult) error {
	req := models.ImageGenerationRequest{
		Prompt:         payload.Prompt,
		NegativePrompt: payload.NegativePrompt,
		Width:          payload.Width,
		Height:         payload.Height,
	}

	resp, err := h.imageClient.GenerateImage(ctx, req)
	if err == nil {
		result.ImageURL = resp.ImageURL
		result.Model = resp.Model
		return nil
	}
	if errors.Is(err, models.ErrInvalidInput) {
		tasksFailed.WithLabelValues(string(payload.Kind), "invalid_input").Inc()
		return err
	}

	// Same degradation as the synchronous path: the task completes with the
	// placeholder image instead of surfacing provider trouble to the user.
	h.logger.Warn("Image generation failed, using placeholder",
		zap.Error(err),
		zap.String("taskID", payload.TaskID))
	result.ImageURL = h.placeholderURL
	result.Model = models.PlaceholderModel
	return nil
}

// saveAndNotify persists the outcome and publishes the completion event on a
// fresh context, so a canceled task context cannot lose the result.
func (h *TaskHandler) saveAndNotify(result *models.GenerationResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.resultRepo.Save(ctx, result); err != nil {
		h.logger.Error("Failed to save generation result",
			zap.Error(err),
			zap.String("taskID", result.ID))
		return fmt.Errorf("failed to save generation result: %w", err)
	}

	eventType := models.EventTypeGenerationCompleted
	if result.Status == models.GenerationStatusFailed {
		eventType = models.EventTypeGenerationFailed
	}
	event := models.GenerationEvent{
		TaskID: result.ID,
		UserID: result.UserID.String(),
		Kind:   string(result.Kind),
		Error:  result.ErrorDetails,
	}
	if result.StoryID != nil {
		event.StoryID = result.StoryID.String()
	}
	if err := h.events.Publish(ctx, eventType, event); err != nil {
		h.logger.Warn("Failed to publish generation event",
			zap.Error(err),
			zap.String("taskID", result.ID))
	}
	return nil
}

// backoff returns the wait before the next attempt: exponential in the
// attempt number with up to 10% jitter either way.
func (h *TaskHandler) backoff(attempt int) time.Duration {
	delay := float64(h.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	jitter := delay * 0.1
	delay += jitter * (rand.Float64()*2 - 1)
	if d := time.Duration(delay); d > h.retryBaseDelay {
		return d
	}
	return h.retryBaseDelay
}
