package ws

import (
	"net/http"
	"time"

	"appnexus-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the router level
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// ServeWs upgrades an HTTP request to a websocket connection and attaches
// it to the hub. The connection stays anonymous until it sends join_room.
func ServeWs(hub *Hub, c *gin.Context) {
	log := logger.GetGlobal()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.LogError(err, "websocket upgrade failed", "remote", c.ClientIP())
		return
	}

	client := NewClient(hub, conn, log)
	hub.Register(client)
	client.Run()
}
