package handler

import (
	"context"
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collaboration frame types exchanged over the story websocket. The value
// doubles as the discriminator clients switch on.
const (
	collabFrameEdit     = "edit"
	collabFrameCursor   = "cursor"
	collabFramePresence = "presence"
)

var collabClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "fictures_collab_clients",
	Help: "Number of connected collaboration websocket clients.",
})

// CollabFrame is one message on the collaboration socket. StoryID and
// UserID are always server-authoritative; values sent by clients are
// overwritten before the frame is relayed.
type CollabFrame struct {
	Type    string          `json:"type"`
	StoryID string          `json:"story_id"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CollabHub relays edit and presence frames between the writers connected
// to the same story. It holds no document state: content is persisted over
// the REST API, the socket only keeps co-writers' editors in sync.
type CollabHub struct {
	rooms      map[string]map[*collabClient]bool
	register   chan *collabClient
	unregister chan *collabClient
	broadcast  chan CollabFrame
	logger     *zap.Logger
}

func NewCollabHub(logger *zap.Logger) *CollabHub {
	return &CollabHub{
		rooms:      make(map[string]map[*collabClient]bool),
		register:   make(chan *collabClient),
		unregister: make(chan *collabClient),
		broadcast:  make(chan CollabFrame),
		logger:     logger.Named("CollabHub"),
	}
}

// Run serves the room registry until the context is canceled. All client
// send channels are closed on exit, which ends their write pumps.
func (h *CollabHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = make(map[string]map[*collabClient]bool)
			collabClientsGauge.Set(0)
			h.logger.Info("Collaboration hub stopped")
			return

		case client := <-h.register:
			room := h.rooms[client.storyID]
			if room == nil {
				room = make(map[*collabClient]bool)
				h.rooms[client.storyID] = room
			}
			room[client] = true
			collabClientsGauge.Inc()
			h.logger.Debug("Collab client joined",
				zap.String("storyID", client.storyID),
				zap.String("userID", client.userID),
				zap.Int("roomSize", len(room)))
			h.sendPresence(client.storyID)

		case client := <-h.unregister:
			room := h.rooms[client.storyID]
			if room == nil || !room[client] {
				continue
			}
			delete(room, client)
			close(client.send)
			collabClientsGauge.Dec()
			if len(room) == 0 {
				delete(h.rooms, client.storyID)
				continue
			}
			h.sendPresence(client.storyID)

		case frame := <-h.broadcast:
			h.relay(frame)
		}
	}
}

// relay fans a frame out to every room member except its sender.
func (h *CollabHub) relay(frame CollabFrame) {
	room := h.rooms[frame.StoryID]
	if len(room) == 0 {
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to marshal collab frame", zap.Error(err))
		return
	}
	for client := range room {
		if client.userID == frame.UserID {
			continue
		}
		h.deliver(client, payload)
	}
}

// sendPresence broadcasts the current member list to everyone in the room.
func (h *CollabHub) sendPresence(storyID string) {
	room := h.rooms[storyID]
	if len(room) == 0 {
		return
	}

	members := make([]string, 0, len(room))
	for client := range room {
		members = append(members, client.userID)
	}
	data, err := json.Marshal(presencePayload{Members: members})
	if err != nil {
		h.logger.Error("Failed to marshal presence payload", zap.Error(err))
		return
	}
	payload, err := json.Marshal(CollabFrame{
		Type:    collabFramePresence,
		StoryID: storyID,
		Payload: data,
	})
	if err != nil {
		h.logger.Error("Failed to marshal presence frame", zap.Error(err))
		return
	}

	for client := range room {
		h.deliver(client, payload)
	}
}

// deliver enqueues a payload without ever blocking the hub loop. A client
// whose buffer is full is cut loose; its read pump will re-register nothing.
func (h *CollabHub) deliver(client *collabClient, payload []byte) {
	select {
	case client.send <- payload:
	default:
		delete(h.rooms[client.storyID], client)
		close(client.send)
		collabClientsGauge.Dec()
		h.logger.Warn("Dropped slow collab client",
			zap.String("storyID", client.storyID),
			zap.String("userID", client.userID))
	}
}

type presencePayload struct {
	Members []string `json:"members"`
}
