package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fictures-server/internal/ai"
	"fictures-server/internal/config"
	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// GenerationService fronts the AI providers: synchronous text and image
// generation for the editor, and queued tasks handled by the worker binary.
//
//go:generate mockery --name GenerationService --output ../mocks --outpkg mocks --case=underscore
type GenerationService interface {
	// GenerateText runs one synchronous completion.
	GenerateText(ctx context.Context, userID uuid.UUID, req models.TextGenerationRequest) (*models.TextGenerationResponse, error)

	// GenerateImage runs one synchronous image generation. Provider
	// failures degrade to the configured placeholder image.
	GenerateImage(ctx context.Context, userID uuid.UUID, req models.ImageGenerationRequest) (*models.ImageGenerationResponse, error)

	// EnqueueTask records a pending result and queues the task for the
	// worker. The returned result carries the task ID to poll.
	EnqueueTask(ctx context.Context, userID uuid.UUID, payload models.GenerationTaskPayload) (*models.GenerationResult, error)

	// GetResult returns one of the user's generation results by task ID.
	GetResult(ctx context.Context, userID uuid.UUID, taskID string) (*models.GenerationResult, error)

	// ListMyResults returns the user's results, newest first.
	ListMyResults(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationResult, error)

	// ListModels describes the configured generation models.
	ListModels() []models.ModelInfo
}

// Compile-time check to ensure generationServiceImpl implements GenerationService
var _ GenerationService = (*generationServiceImpl)(nil)

type generationServiceImpl struct {
	textClient     ai.TextClient
	imageClient    ai.ImageClient
	resultRepo     interfaces.GenerationResultRepository
	tasks          interfaces.TaskPublisher
	textModel      string
	textProvider   string
	imageModel     string
	imageProvider  string
	placeholderURL string
	logger         *zap.Logger
}

// NewGenerationService creates a new instance of generationServiceImpl.
func NewGenerationService(
	textClient ai.TextClient,
	imageClient ai.ImageClient,
	resultRepo interfaces.GenerationResultRepository,
	tasks interfaces.TaskPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) GenerationService {
	return &generationServiceImpl{
		textClient:     textClient,
		imageClient:    imageClient,
		resultRepo:     resultRepo,
		tasks:          tasks,
		textModel:      cfg.AIModel,
		textProvider:   cfg.AIClientType,
		imageModel:     cfg.AIImageModel,
		imageProvider:  cfg.ImageClientType,
		placeholderURL: cfg.PlaceholderImageURL,
		logger:         logger.Named("GenerationService"),
	}
}

func (s *generationServiceImpl) GenerateText(ctx context.Context, userID uuid.UUID, req models.TextGenerationRequest) (*models.TextGenerationResponse, error) {
	result, err := s.textClient.GenerateText(ctx, userID.String(), req)
	if err != nil {
		return nil, err
	}
	return &models.TextGenerationResponse{
		Text:         result.Text,
		Model:        result.Model,
		TokensUsed:   result.Usage.TotalTokens,
		FinishReason: result.FinishReason,
	}, nil
}

func (s *generationServiceImpl) GenerateImage(ctx context.Context, userID uuid.UUID, req models.ImageGenerationRequest) (*models.ImageGenerationResponse, error) {
	resp, err := s.imageClient.GenerateImage(ctx, req)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, models.ErrInvalidInput) {
		return nil, err
	}

	// Provider trouble never blocks the editor; hand back the placeholder
	// so the scene keeps an image slot.
	s.logger.Warn("Image generation failed, falling back to placeholder",
		zap.Error(err),
		zap.String("userID", userID.String()))
	req.ApplyDefaults()
	return &models.ImageGenerationResponse{
		ImageURL: s.placeholderURL,
		Model:    models.PlaceholderModel,
		Width:    req.Width,
		Height:   req.Height,
	}, nil
}

func (s *generationServiceImpl) EnqueueTask(ctx context.Context, userID uuid.UUID, payload models.GenerationTaskPayload) (*models.GenerationResult, error) {
	if !models.IsValidGenerationKind(payload.Kind) {
		return nil, fmt.Errorf("unknown generation kind %q: %w", payload.Kind, models.ErrInvalidInput)
	}
	payload.Prompt = strings.TrimSpace(payload.Prompt)
	if payload.Prompt == "" {
		return nil, fmt.Errorf("prompt is required: %w", models.ErrInvalidInput)
	}

	payload.TaskID = uuid.NewString()
	payload.UserID = userID

	pending := &models.GenerationResult{
		ID:      payload.TaskID,
		UserID:  userID,
		StoryID: payload.StoryID,
		Kind:    payload.Kind,
		Status:  models.GenerationStatusPending,
	}
	if err := s.resultRepo.Save(ctx, pending); err != nil {
		return nil, err
	}

	if err := s.tasks.PublishGenerationTask(ctx, payload); err != nil {
		// The pending row must not linger when nothing will process it.
		pending.Status = models.GenerationStatusFailed
		pending.ErrorDetails = "failed to enqueue task"
		if saveErr := s.resultRepo.Save(ctx, pending); saveErr != nil {
			s.logger.Error("Failed to mark unqueued task as failed",
				zap.Error(saveErr),
				zap.String("taskID", payload.TaskID))
		}
		return nil, fmt.Errorf("failed to enqueue generation task: %w", err)
	}

	s.logger.Info("Generation task enqueued",
		zap.String("taskID", payload.TaskID),
		zap.String("kind", string(payload.Kind)),
		zap.String("userID", userID.String()))
	return pending, nil
}

func (s *generationServiceImpl) GetResult(ctx context.Context, userID uuid.UUID, taskID string) (*models.GenerationResult, error) {
	result, err := s.resultRepo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if result.UserID != userID {
		return nil, models.ErrGenerationNotFound
	}
	return result, nil
}

func (s *generationServiceImpl) ListMyResults(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationResult, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return s.resultRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *generationServiceImpl) ListModels() []models.ModelInfo {
	return []models.ModelInfo{
		{ID: s.textModel, Kind: "text", Provider: s.textProvider, Default: true},
		{ID: s.imageModel, Kind: "image", Provider: s.imageProvider, Default: true},
	}
}
