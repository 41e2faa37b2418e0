package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

func recvEvent(t *testing.T, sub *Subscriber) models.Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events:
		require.True(t, ok, "events channel closed while expecting an event")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an event")
		return models.Event{}
	}
}

func expectEventsClosed(t *testing.T, sub *Subscriber) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed")
		}
	}
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	// The registry does not need a reachable Redis; the subscription channel
	// simply stays silent.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	hub := NewHub(client, 4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Unsubscribe(first)
	expectEventsClosed(t, first)

	cancel()
	expectEventsClosed(t, second)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestHubDefaultBuffer(t *testing.T) {
	hub := NewHub(nil, 0, zap.NewNop())
	assert.Equal(t, 16, hub.buffer)
}

func TestHubDispatch(t *testing.T) {
	marshalEvent := func(t *testing.T, event models.Event) string {
		t.Helper()
		payload, err := json.Marshal(event)
		require.NoError(t, err)
		return string(payload)
	}

	t.Run("Fans out to every subscriber", func(t *testing.T) {
		hub := NewHub(nil, 4, zap.NewNop())
		first := &Subscriber{Events: make(chan models.Event, 4)}
		second := &Subscriber{Events: make(chan models.Event, 4)}
		hub.clients[first] = struct{}{}
		hub.clients[second] = struct{}{}

		hub.dispatch(&redis.Message{
			Channel: models.ChannelSocialEvents,
			Payload: marshalEvent(t, models.Event{
				Type: models.EventTypeStoryLiked,
				Data: json.RawMessage(`{"story_id":"s1","like_count":3}`),
			}),
		})

		for _, sub := range []*Subscriber{first, second} {
			event := recvEvent(t, sub)
			assert.Equal(t, models.EventTypeStoryLiked, event.Type)
			assert.JSONEq(t, `{"story_id":"s1","like_count":3}`, string(event.Data))
		}
	})

	t.Run("Drops malformed payloads", func(t *testing.T) {
		hub := NewHub(nil, 4, zap.NewNop())
		sub := &Subscriber{Events: make(chan models.Event, 4)}
		hub.clients[sub] = struct{}{}

		hub.dispatch(&redis.Message{Channel: models.ChannelStoryEvents, Payload: "{broken"})

		assert.Empty(t, sub.Events)
		assert.Len(t, hub.clients, 1)
	})

	t.Run("Cuts a slow subscriber loose", func(t *testing.T) {
		hub := NewHub(nil, 4, zap.NewNop())
		slow := &Subscriber{Events: make(chan models.Event, 1)}
		fast := &Subscriber{Events: make(chan models.Event, 4)}
		hub.clients[slow] = struct{}{}
		hub.clients[fast] = struct{}{}

		firstPayload := marshalEvent(t, models.Event{Type: models.EventTypeStoryPublished, Data: json.RawMessage(`{"n":1}`)})
		secondPayload := marshalEvent(t, models.Event{Type: models.EventTypeStoryPublished, Data: json.RawMessage(`{"n":2}`)})

		hub.dispatch(&redis.Message{Channel: models.ChannelStoryEvents, Payload: firstPayload})
		// Slow never reads, so its one-slot buffer is still full here.
		hub.dispatch(&redis.Message{Channel: models.ChannelStoryEvents, Payload: secondPayload})

		require.Len(t, hub.clients, 1)
		_, stillThere := hub.clients[fast]
		assert.True(t, stillThere)

		assert.JSONEq(t, `{"n":1}`, string(recvEvent(t, slow).Data))
		expectEventsClosed(t, slow)

		assert.JSONEq(t, `{"n":1}`, string(recvEvent(t, fast).Data))
		assert.JSONEq(t, `{"n":2}`, string(recvEvent(t, fast).Data))
	})
}

func TestPublisherUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	defer client.Close()

	pub := NewRedisPublisher(client, zap.NewNop())
	err := pub.Publish(context.Background(), models.EventTypeStoryPublished, models.StoryPublishedEvent{
		StoryID: "s1",
		Title:   "The Clockwork Moon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.ChannelStoryEvents)
}

func TestPublisherRejectsUnmarshalablePayload(t *testing.T) {
	pub := NewRedisPublisher(nil, zap.NewNop())
	err := pub.Publish(context.Background(), models.EventTypeStoryLiked, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}
