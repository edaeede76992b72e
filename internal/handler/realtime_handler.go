package handler

import (
	"idea-clustering-be/internal/pkg/logger"
	internalWS "idea-clustering-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// RealtimeHandler upgrades clients into a discussion's websocket room.
// Subscriptions are read-only: anyone watching a discussion may connect,
// the server only ever pushes full snapshots.
type RealtimeHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewRealtimeHandler(hub *internalWS.Hub, log logger.ILogger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	discussionID, err := uuid.Parse(c.Params("discussion_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid discussion id"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("RealtimeHandler", "Starting WebSocket session", map[string]interface{}{"discussion_id": discussionID})
			internalWS.ServeWs(h.hub, conn, discussionID)
			h.logger.Info("RealtimeHandler", "WebSocket session ended", map[string]interface{}{"discussion_id": discussionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the realtime routes.
func (h *RealtimeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/:discussion_id", h.ServeWs)
}
