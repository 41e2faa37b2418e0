package handler

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	collabWriteWait  = 10 * time.Second
	collabPongWait   = 60 * time.Second
	collabPingPeriod = (collabPongWait * 9) / 10

	// Edit frames carry scene fragments, so the limit is well above a
	// chat-sized message.
	collabMaxMessageSize = 64 * 1024

	collabSendBuffer = 256
)

// collabClient is one websocket connection inside a story room.
type collabClient struct {
	hub     *CollabHub
	conn    *websocket.Conn
	send    chan []byte
	storyID string
	userID  string
	logger  *zap.Logger
}

// readPump consumes frames from the peer and hands them to the hub. It owns
// the connection's read side and is responsible for unregistering the client
// when the connection dies.
func (c *collabClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(collabMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(collabPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(collabPongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Collab read error", zap.Error(err))
			}
			return
		}

		var frame CollabFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Debug("Discarding malformed collab frame", zap.Error(err))
			continue
		}
		if frame.Type != collabFrameEdit && frame.Type != collabFrameCursor {
			continue
		}

		// Clients cannot speak for other users or other stories.
		frame.StoryID = c.storyID
		frame.UserID = c.userID
		c.hub.broadcast <- frame
	}
}

// writePump pushes hub payloads and pings to the peer. One goroutine per
// connection owns all writes.
func (c *collabClient) writePump() {
	ticker := time.NewTicker(collabPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(collabWriteWait))
			if !ok {
				// The hub closed the channel, either on shutdown or
				// because this client read too slowly.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(collabWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
