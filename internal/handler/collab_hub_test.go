package handler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Hub tests drive the room registry through its channels with bare clients;
// the websocket pumps are not involved.

func newHubClient(storyID, userID string, buffer int) *collabClient {
	return &collabClient{
		send:    make(chan []byte, buffer),
		storyID: storyID,
		userID:  userID,
	}
}

func recvFrame(t *testing.T, c *collabClient) CollabFrame {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed while expecting a frame")
		var frame CollabFrame
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return CollabFrame{}
	}
}

func presenceMembers(t *testing.T, frame CollabFrame) []string {
	t.Helper()
	require.Equal(t, collabFramePresence, frame.Type)
	var p presencePayload
	require.NoError(t, json.Unmarshal(frame.Payload, &p))
	return p.Members
}

func expectClosed(t *testing.T, c *collabClient) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel never closed")
		}
	}
}

// syncHub registers a client in a throwaway room and waits for its presence
// frame. When it returns, the hub has processed everything sent before it.
func syncHub(t *testing.T, hub *CollabHub) {
	t.Helper()
	probe := newHubClient("sync-"+time.Now().Format("150405.000000000"), "probe", 1)
	hub.register <- probe
	recvFrame(t, probe)
	hub.unregister <- probe
}

func startHub(t *testing.T) *CollabHub {
	t.Helper()
	hub := NewCollabHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestCollabHubRelay(t *testing.T) {
	hub := startHub(t)

	alice := newHubClient("story-a", "alice", 8)
	bob := newHubClient("story-a", "bob", 8)
	carol := newHubClient("story-b", "carol", 8)

	hub.register <- alice
	assert.Equal(t, []string{"alice"}, presenceMembers(t, recvFrame(t, alice)))

	hub.register <- bob
	assert.ElementsMatch(t, []string{"alice", "bob"}, presenceMembers(t, recvFrame(t, alice)))
	assert.ElementsMatch(t, []string{"alice", "bob"}, presenceMembers(t, recvFrame(t, bob)))

	hub.register <- carol
	assert.Equal(t, []string{"carol"}, presenceMembers(t, recvFrame(t, carol)))

	hub.broadcast <- CollabFrame{
		Type:    collabFrameEdit,
		StoryID: "story-a",
		UserID:  "alice",
		Payload: json.RawMessage(`{"scene_id":"s1","text":"She wound the mainspring."}`),
	}

	frame := recvFrame(t, bob)
	assert.Equal(t, collabFrameEdit, frame.Type)
	assert.Equal(t, "story-a", frame.StoryID)
	assert.Equal(t, "alice", frame.UserID)
	assert.JSONEq(t, `{"scene_id":"s1","text":"She wound the mainspring."}`, string(frame.Payload))

	syncHub(t, hub)
	assert.Empty(t, alice.send, "sender must not receive its own frame")
	assert.Empty(t, carol.send, "other rooms must not see the frame")
}

func TestCollabHubUnregister(t *testing.T) {
	hub := startHub(t)

	alice := newHubClient("story-a", "alice", 8)
	bob := newHubClient("story-a", "bob", 8)

	hub.register <- alice
	recvFrame(t, alice)
	hub.register <- bob
	recvFrame(t, alice)
	recvFrame(t, bob)

	hub.unregister <- bob
	assert.Equal(t, []string{"alice"}, presenceMembers(t, recvFrame(t, alice)))
	expectClosed(t, bob)

	// A repeated unregister of the same client is a no-op.
	hub.unregister <- bob
	syncHub(t, hub)
	assert.Empty(t, alice.send)
}

func TestCollabHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)

	slow := newHubClient("story-a", "slow", 1)
	alice := newHubClient("story-a", "alice", 8)

	hub.register <- slow
	// The first presence frame fills slow's entire buffer and is never read.

	hub.register <- alice
	assert.ElementsMatch(t, []string{"slow", "alice"}, presenceMembers(t, recvFrame(t, alice)))

	// Slow still holds the first presence frame, then the channel closes.
	assert.Equal(t, []string{"slow"}, presenceMembers(t, recvFrame(t, slow)))
	expectClosed(t, slow)

	// The room keeps working for the remaining member.
	hub.broadcast <- CollabFrame{
		Type:    collabFrameCursor,
		StoryID: "story-a",
		UserID:  "someone-else",
		Payload: json.RawMessage(`{"scene_id":"s1","offset":42}`),
	}
	frame := recvFrame(t, alice)
	assert.Equal(t, collabFrameCursor, frame.Type)
}

func TestCollabHubShutdown(t *testing.T) {
	hub := NewCollabHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	alice := newHubClient("story-a", "alice", 8)
	hub.register <- alice
	recvFrame(t, alice)

	cancel()
	expectClosed(t, alice)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
}
