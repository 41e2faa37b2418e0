package interfaces

import (
	"context"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// GenerationResultRepository defines the interface for generation task results.
//
//go:generate mockery --name GenerationResultRepository --output ../mocks --outpkg mocks --case=underscore
type GenerationResultRepository interface {
	// GetByTaskID retrieves a result by its task ID.
	// Returns models.ErrGenerationNotFound if absent.
	GetByTaskID(ctx context.Context, taskID string) (*models.GenerationResult, error)

	// Save upserts a result keyed by task ID. The worker calls it once for
	// the pending row and again with the outcome.
	Save(ctx context.Context, result *models.GenerationResult) error

	// ListByUser returns the user's results, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.GenerationResult, error)
}
