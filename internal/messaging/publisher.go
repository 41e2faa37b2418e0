// Package messaging moves generation tasks between the API server and the
// worker binary over RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure TaskQueuePublisher implements TaskPublisher
var _ interfaces.TaskPublisher = (*TaskQueuePublisher)(nil)

// TaskQueuePublisher publishes generation tasks onto a durable queue. The
// connection is expected to be established and managed by the caller.
type TaskQueuePublisher struct {
	ch        *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewTaskQueuePublisher opens a channel and declares the task queue.
func NewTaskQueuePublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*TaskQueuePublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}

	logger.Info("Generation task queue declared", zap.String("queue", queueName))
	return &TaskQueuePublisher{
		ch:        ch,
		queueName: queueName,
		logger:    logger.Named("TaskPublisher"),
	}, nil
}

// PublishGenerationTask enqueues one task as a persistent JSON message.
func (p *TaskQueuePublisher) PublishGenerationTask(ctx context.Context, payload models.GenerationTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.TaskID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}

	p.logger.Debug("Generation task published",
		zap.String("taskID", payload.TaskID),
		zap.String("kind", string(payload.Kind)))
	return nil
}

// Close closes the publisher's channel.
func (p *TaskQueuePublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
