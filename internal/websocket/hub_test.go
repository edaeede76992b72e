package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(string, string, map[string]interface{}) {}
func (quietLogger) Info(string, string, map[string]interface{})  {}
func (quietLogger) Warn(string, string, map[string]interface{})  {}
func (quietLogger) Error(string, string, map[string]interface{}) {}
func (quietLogger) Sync() error                                  { return nil }

func TestClientTrySendAfterCloseDoesNotPanic(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1)}

	require.True(t, c.trySend([]byte("a")))
	assert.False(t, c.trySend([]byte("b")), "full buffer must refuse, not block")

	c.closeSend()
	assert.False(t, c.trySend([]byte("c")), "send after close must refuse, not panic")
	c.closeSend() // double unregister happens; must stay idempotent

	msg, open := <-c.Send
	assert.Equal(t, []byte("a"), msg)
	assert.True(t, open)
	_, open = <-c.Send
	assert.False(t, open)
}

func TestHubDropsSlowConsumerWithoutPanicking(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	discussionID := uuid.New()
	client := &Client{DiscussionID: discussionID, Send: make(chan []byte, 1)}
	h.register <- client
	waitForRoom(t, h, discussionID, true)

	// first publish fills the buffer, second trips the slow-consumer drop
	h.Publish(discussionID, "clusters_updated", map[string]interface{}{"n": 1})
	h.Publish(discussionID, "clusters_updated", map[string]interface{}{"n": 2})
	waitForRoom(t, h, discussionID, false)

	// the room is gone and the client closed; another publish must not
	// panic on the closed channel
	h.Publish(discussionID, "clusters_updated", map[string]interface{}{"n": 3})
	assert.False(t, client.trySend([]byte("late")))

	<-client.Send // the buffered first message
	_, open := <-client.Send
	assert.False(t, open, "dropped client's channel must be closed")
}

func waitForRoom(t *testing.T, h *Hub, discussionID uuid.UUID, present bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		_, ok := h.rooms[discussionID]
		h.mu.RUnlock()
		if ok == present {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room presence never became %v", present)
}
