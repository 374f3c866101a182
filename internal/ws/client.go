package ws

import (
	"encoding/json"
	"sync"
	"time"

	"appnexus-chat/backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// WebSocketClient is the gorilla-backed Conn implementation: one upgraded
// connection with a read pump, a write pump, and a FIFO send queue that
// serializes this connection's message persistence.
type WebSocketClient struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	log  *logger.Logger

	send    chan Event
	pending chan SendPayload
	done    chan struct{}

	closeOnce sync.Once
}

// NewClient wraps an upgraded connection. The caller registers it with the
// hub and starts the pumps with Run.
func NewClient(hub *Hub, conn *websocket.Conn, log *logger.Logger) *WebSocketClient {
	return &WebSocketClient{
		id:      uuid.New().String(),
		conn:    conn,
		hub:     hub,
		log:     log,
		send:    make(chan Event, 256),
		pending: make(chan SendPayload, 16),
		done:    make(chan struct{}),
	}
}

func (c *WebSocketClient) ID() string { return c.id }

// Enqueue hands an event to the write pump without blocking the hub.
func (c *WebSocketClient) Enqueue(ev Event) bool {
	select {
	case <-c.done:
		return false
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Close shuts the connection down; safe to call more than once. Closing
// the underlying socket unblocks the read pump, which reports the
// disconnect to the hub.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Run starts the connection's goroutines.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.sendWorker()
	go c.readPump()
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "conn_id", c.id, "error", err.Error())
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("discarding malformed frame", "conn_id", c.id, "error", err.Error())
			continue
		}

		switch frame.Event {
		case EventJoinRoom:
			var userID string
			if err := json.Unmarshal(frame.Data, &userID); err != nil {
				c.log.Warn("discarding malformed join_room payload", "conn_id", c.id)
				continue
			}
			c.hub.JoinRoom(c, userID)

		case EventTyping:
			var t TypingPayload
			if err := json.Unmarshal(frame.Data, &t); err != nil {
				continue
			}
			c.hub.Typing(c, t)

		case EventSendMessage:
			var p SendPayload
			if err := json.Unmarshal(frame.Data, &p); err != nil {
				continue
			}
			// Blocks when sends outpace the store; back-pressure on this
			// connection only.
			select {
			case c.pending <- p:
			case <-c.done:
				return
			}

		default:
			c.log.Debug("ignoring unknown event", "conn_id", c.id, "event", frame.Event)
		}
	}
}

// sendWorker drains this connection's pending sends one at a time so
// concurrent sends from the same sender are never reordered past each
// other.
func (c *WebSocketClient) sendWorker() {
	for {
		select {
		case <-c.done:
			return
		case p := <-c.pending:
			c.hub.Submit(c, p)
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(ev)
			if err != nil {
				c.log.Warn("failed to encode event", "conn_id", c.id, "error", err.Error())
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
