package interfaces

import (
	"context"

	"fictures-server/internal/models"
)

// EventPublisher publishes community events onto the Redis event bus. The
// SSE hub forwards them to connected clients.
//
//go:generate mockery --name EventPublisher --output ../mocks --outpkg mocks --case=underscore
type EventPublisher interface {
	// Publish marshals payload and sends it on the channel derived from
	// eventType. Publishing is best-effort; callers log and continue.
	Publish(ctx context.Context, eventType string, payload any) error
}

// TaskPublisher enqueues generation tasks for the worker.
//
//go:generate mockery --name TaskPublisher --output ../mocks --outpkg mocks --case=underscore
type TaskPublisher interface {
	// PublishGenerationTask enqueues one task payload.
	PublishGenerationTask(ctx context.Context, payload models.GenerationTaskPayload) error
}
