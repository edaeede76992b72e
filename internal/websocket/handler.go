package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles websocket requests from the peer, joining the
// connection to its discussion room.
func ServeWs(hub *Hub, c *websocket.Conn, discussionID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, DiscussionID: discussionID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // run readPump in the handler goroutine
}
