package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"idea-clustering-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "cluster_events"

// Hub fans cluster updates out to every client subscribed to a
// discussion room. Rooms are keyed by discussion id; one participant may
// hold several connections (multiple tabs).
type Hub struct {
	// DiscussionID -> connected clients
	rooms map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.rooms[client.DiscussionID] = append(h.rooms[client.DiscussionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client joined discussion room", map[string]interface{}{"discussion_id": client.DiscussionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.DiscussionID]; ok {
				for i, c := range clients {
					if c == client {
						h.rooms[client.DiscussionID] = append(clients[:i], clients[i+1:]...)
						client.closeSend()
						break
					}
				}
				if len(h.rooms[client.DiscussionID]) == 0 {
					delete(h.rooms, client.DiscussionID)
					h.logger.Info("Hub", "Discussion room closed", map[string]interface{}{"discussion_id": client.DiscussionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends an event to every client in the discussion room, locally
// and via Redis for other instances. Delivery is best effort: a slow
// client is dropped rather than blocking the room, and subscribers
// re-derive state on the next read anyway.
func (h *Hub) Publish(discussionID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal event payload", map[string]interface{}{"error": err.Error()})
		return
	}

	h.sendLocal(discussionID, data)

	if h.rdb != nil {
		envelope := map[string]interface{}{
			"discussion_id": discussionID.String(),
			"message":       json.RawMessage(data),
		}
		jsonEnvelope, _ := json.Marshal(envelope)
		h.rdb.Publish(context.Background(), redisChannel, jsonEnvelope)
	}
}

func (h *Hub) sendLocal(discussionID uuid.UUID, data []byte) {
	// snapshot under the lock; Run compacts room slices in place
	h.mu.RLock()
	clients := append([]*Client(nil), h.rooms[discussionID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.trySend(data) {
			// slow consumer: drop the connection, Run closes its channel
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"discussion_id": discussionID})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to the same channel and deliver to the
	// rooms they hold locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var envelope struct {
			DiscussionID string          `json:"discussion_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		discussionID, err := uuid.Parse(envelope.DiscussionID)
		if err != nil {
			continue
		}

		h.sendLocal(discussionID, envelope.Message)
	}
}
