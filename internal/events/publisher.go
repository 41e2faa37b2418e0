// Package events carries community events from the services to connected
// clients: a Redis Pub/Sub publisher on the write side and a fan-out hub
// feeding the SSE stream on the read side.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fictures-server/internal/interfaces"
	"fictures-server/internal/models"
)

// Compile-time check to ensure RedisPublisher implements EventPublisher
var _ interfaces.EventPublisher = (*RedisPublisher)(nil)

// RedisPublisher publishes event envelopes onto the fixed channel set. Every
// server instance's hub receives them, so events reach clients regardless of
// which instance handled the originating request.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		logger: logger.Named("EventPublisher"),
	}
}

// Publish wraps the payload in an event envelope and sends it on the channel
// derived from the event type.
func (p *RedisPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	envelope, err := json.Marshal(models.Event{Type: eventType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	channel := models.ChannelForEvent(eventType)
	if err := p.client.Publish(ctx, channel, envelope).Err(); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", channel, err)
	}
	p.logger.Debug("Event published",
		zap.String("eventType", eventType),
		zap.String("channel", channel))
	return nil
}
