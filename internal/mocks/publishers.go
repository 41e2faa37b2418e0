package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

var _ interfaces.EventPublisher = (*EventPublisher)(nil)

func (m *EventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

// Mock TaskPublisher
type TaskPublisher struct {
	mock.Mock
}

var _ interfaces.TaskPublisher = (*TaskPublisher)(nil)

func (m *TaskPublisher) PublishGenerationTask(ctx context.Context, payload models.GenerationTaskPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
