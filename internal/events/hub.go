package events

import (
	"context"
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

var sseClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "fictures_sse_clients",
	Help: "Number of connected SSE clients.",
})

// Subscriber is one connected SSE client. Events arrive on the channel until
// the hub closes it, either on unsubscribe or when the client falls behind.
type Subscriber struct {
	Events chan models.Event
}

// Hub subscribes to the Redis event channels and fans incoming events out to
// all registered subscribers. A subscriber whose buffer is full is dropped
// rather than allowed to stall the loop.
type Hub struct {
	redis      *redis.Client
	buffer     int
	clients    map[*Subscriber]struct{}
	register   chan *Subscriber
	unregister chan *Subscriber
	logger     *zap.Logger
}

// NewHub creates a hub. Run must be started before clients subscribe.
func NewHub(redisClient *redis.Client, clientBuffer int, logger *zap.Logger) *Hub {
	if clientBuffer <= 0 {
		clientBuffer = 16
	}
	return &Hub{
		redis:      redisClient,
		buffer:     clientBuffer,
		clients:    make(map[*Subscriber]struct{}),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		logger:     logger.Named("EventHub"),
	}
}

// Subscribe registers a new client with the hub.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{Events: make(chan models.Event, h.buffer)}
	h.register <- sub
	return sub
}

// Unsubscribe removes a client. Safe to call after the hub already dropped
// the client for falling behind.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.unregister <- sub
}

// Run consumes the Redis subscription and serves the client registry until
// the context is canceled. All subscriber channels are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, models.AllEventChannels()...)
	defer pubsub.Close()

	h.logger.Info("Event hub started", zap.Strings("channels", models.AllEventChannels()))
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			for sub := range h.clients {
				delete(h.clients, sub)
				close(sub.Events)
			}
			sseClientsGauge.Set(0)
			h.logger.Info("Event hub stopped")
			return

		case sub := <-h.register:
			h.clients[sub] = struct{}{}
			sseClientsGauge.Inc()
			h.logger.Debug("SSE client subscribed", zap.Int("clients", len(h.clients)))

		case sub := <-h.unregister:
			if _, ok := h.clients[sub]; ok {
				delete(h.clients, sub)
				close(sub.Events)
				sseClientsGauge.Dec()
				h.logger.Debug("SSE client unsubscribed", zap.Int("clients", len(h.clients)))
			}

		case msg, ok := <-messages:
			if !ok {
				h.logger.Warn("Redis subscription channel closed")
				for sub := range h.clients {
					delete(h.clients, sub)
					close(sub.Events)
				}
				sseClientsGauge.Set(0)
				return
			}
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg *redis.Message) {
	var event models.Event
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		h.logger.Warn("Dropping malformed event",
			zap.Error(err),
			zap.String("channel", msg.Channel))
		return
	}

	for sub := range h.clients {
		select {
		case sub.Events <- event:
		default:
			// The client is not reading fast enough; cut it loose so one
			// stuck connection cannot back up the hub.
			delete(h.clients, sub)
			close(sub.Events)
			sseClientsGauge.Dec()
			h.logger.Warn("Dropped slow SSE client", zap.Int("clients", len(h.clients)))
		}
	}
}
