package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

// TaskHandler processes one decoded generation task. Defined here rather
// than in the worker package so the consumer does not import its own caller.
type TaskHandler interface {
	Handle(ctx context.Context, payload models.GenerationTaskPayload) error
}

// Consumer reads generation tasks off the queue and feeds them to a pool of
// worker goroutines. Qos caps in-flight deliveries at the pool size.
type Consumer struct {
	conn        *amqp.Connection
	queueName   string
	consumerTag string
	concurrency int
	handler     TaskHandler
	logger      *zap.Logger
	stopChannel chan struct{}
	cancelFunc  context.CancelFunc
	wg          sync.WaitGroup
}

// NewConsumer creates a consumer over an established connection. The consumer
// tag identifies this worker instance in the broker's management UI.
func NewConsumer(conn *amqp.Connection, queueName, consumerTag string, concurrency int, handler TaskHandler, logger *zap.Logger) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		queueName:   queueName,
		consumerTag: consumerTag,
		concurrency: concurrency,
		handler:     handler,
		logger:      logger.Named("Consumer"),
		stopChannel: make(chan struct{}),
	}
}

// Start declares the queue, spawns the worker pool and blocks until Stop is
// called or the delivery channel closes.
func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", c.queueName, err)
	}

	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started, waiting for tasks",
		zap.String("queue", q.Name),
		zap.Int("concurrency", c.concurrency))

	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("workerID", workerID))
			for {
				select {
				case <-ctx.Done():
					logger.Info("Worker stopping on context cancel")
					return
				case <-c.stopChannel:
					logger.Info("Worker stopping on stop signal")
					return
				case delivery, ok := <-msgs:
					if !ok {
						logger.Info("Delivery channel closed, worker exiting")
						return
					}
					c.processDelivery(ctx, logger, delivery)
				}
			}
		}(i)
	}

	<-c.stopChannel
	c.logger.Info("Stop signal received, canceling workers")
	c.cancelFunc()
	c.wg.Wait()
	c.logger.Info("All workers stopped")
	return nil
}

// Stop shuts the consumer down and waits for in-flight tasks to finish.
func (c *Consumer) Stop() {
	close(c.stopChannel)
}

func (c *Consumer) processDelivery(ctx context.Context, logger *zap.Logger, delivery amqp.Delivery) {
	var payload models.GenerationTaskPayload
	if err := json.Unmarshal(delivery.Body, &payload); err != nil {
		logger.Error("Failed to decode task payload, discarding",
			zap.Error(err),
			zap.Uint64("deliveryTag", delivery.DeliveryTag))
		// Malformed tasks would fail forever; drop without requeue.
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			logger.Error("Failed to nack malformed task", zap.Error(nackErr))
		}
		return
	}

	logger = logger.With(zap.String("taskID", payload.TaskID))
	if err := c.handler.Handle(ctx, payload); err != nil {
		logger.Error("Task processing failed, discarding", zap.Error(err))
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			logger.Error("Failed to nack task", zap.Error(nackErr))
		}
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		logger.Error("Failed to ack task", zap.Error(ackErr))
		return
	}
	logger.Debug("Task acknowledged")
}
