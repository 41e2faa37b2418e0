package interfaces

import (
	"context"
	"time"

	"fictures-server/internal/models"

	"github.com/google/uuid"
)

// ScheduleRepository defines the interface for publish schedule persistence.
//
//go:generate mockery --name ScheduleRepository --output ../mocks --outpkg mocks --case=underscore
type ScheduleRepository interface {
	// Create inserts a pending schedule.
	Create(ctx context.Context, querier DBTX, schedule *models.PublishSchedule) error

	// GetByID retrieves a schedule by ID.
	// Returns models.ErrScheduleNotFound if absent.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.PublishSchedule, error)

	// ListByUser returns the user's schedules, soonest first.
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, limit, offset int) ([]models.PublishSchedule, error)

	// UpdatePublishAt moves a pending schedule to a new time.
	// Returns models.ErrScheduleNotPending when the row left pending state.
	UpdatePublishAt(ctx context.Context, querier DBTX, id uuid.UUID, publishAt time.Time) error

	// SetStatus transitions the schedule state, storing a failure reason when
	// given.
	SetStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.ScheduleStatus, failureReason string) error

	// ClaimDue locks and returns up to limit pending schedules due at or
	// before now. Rows locked by a concurrent claim are skipped, so parallel
	// schedulers never publish the same chapter twice. Must run inside the
	// transaction passed as querier.
	ClaimDue(ctx context.Context, querier DBTX, now time.Time, limit int) ([]models.PublishSchedule, error)
}
