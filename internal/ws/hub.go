package ws

import (
	"time"

	"appnexus-chat/backend/internal/metrics"
	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/pkg/logger"
)

// MessageStore persists outbound messages. Implemented by the message
// service; both the websocket path and the HTTP gateway go through it so
// the two entry points cannot diverge.
type MessageStore interface {
	Send(senderID, receiverID, content string, ts time.Time) (*models.Message, error)
}

// Directory resolves user identities to display names for payload
// enrichment. Lookup failures must never block delivery.
type Directory interface {
	DisplayName(id string) (string, bool)
}

// command is one inbound connection event, consumed by the hub loop.
type command struct {
	conn   Conn
	event  string
	userID string        // join_room payload
	typing TypingPayload // typing payload
}

// Hub is the fan-out engine. A single Run loop owns every presence
// mutation and broadcast, so roster snapshots are always taken atomically
// with the join/leave that triggered them. Message persistence is the only
// blocking operation and runs off-loop: each connection drains its own
// FIFO send queue, which preserves per-sender ordering without stalling
// other connections.
type Hub struct {
	register   chan Conn
	unregister chan Conn
	inbound    chan command
	deliver    chan *models.Message

	conns    map[Conn]struct{}
	presence *Presence

	store     MessageStore
	directory Directory
	logger    *logger.Logger
}

func NewHub(store MessageStore, directory Directory, log *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan Conn),
		unregister: make(chan Conn),
		inbound:    make(chan command),
		deliver:    make(chan *models.Message, 256),
		conns:      make(map[Conn]struct{}),
		presence:   NewPresence(),
		store:      store,
		directory:  directory,
		logger:     log,
	}
}

// Register attaches a new connection. The connection stays invisible to
// presence and delivery until it announces an identity with join_room.
func (h *Hub) Register(c Conn) {
	h.register <- c
}

// Unregister detaches a connection and runs the disconnect cleanup path.
// Safe to call more than once per connection.
func (h *Hub) Unregister(c Conn) {
	h.unregister <- c
}

// JoinRoom announces the connection's identity and registers it with
// presence.
func (h *Hub) JoinRoom(c Conn, userID string) {
	h.inbound <- command{conn: c, event: EventJoinRoom, userID: userID}
}

// Typing relays a typing indicator to the receiver's room.
func (h *Hub) Typing(c Conn, t TypingPayload) {
	h.inbound <- command{conn: c, event: EventTyping, typing: t}
}

// Submit persists a message on behalf of a joined connection and fans it
// out. Runs on the caller's goroutine; each connection's send worker calls
// it sequentially so a sender's messages keep their order.
func (h *Hub) Submit(c Conn, p SendPayload) {
	h.persistAndDeliver(c, p)
}

// Deliver fans a stored message out to the sender's and receiver's rooms.
// The HTTP gateway calls this after persisting; the websocket send path
// ends up here through the same channel.
func (h *Hub) Deliver(msg *models.Message) {
	h.deliver <- msg
}

// Presence exposes the registry for read-side queries.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// Run drives the hub until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.conns[c] = struct{}{}
			metrics.ActiveConnections.Inc()
			h.logger.Debug("connection attached", "conn_id", c.ID())

		case c := <-h.unregister:
			h.dropConn(c)

		case cmd := <-h.inbound:
			switch cmd.event {
			case EventJoinRoom:
				h.handleJoin(cmd.conn, cmd.userID)
			case EventTyping:
				h.handleTyping(cmd.conn, cmd.typing)
			}

		case msg := <-h.deliver:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) handleJoin(c Conn, userID string) {
	if userID == "" {
		return
	}
	h.presence.Join(userID, c)
	h.logger.Info("user joined room", "user_id", userID, "conn_id", c.ID())
	h.broadcastRoster()
}

// handleTyping relays a typing indicator to the receiver's room only.
// Offline receivers mean a silent drop; typing state is never queued.
func (h *Hub) handleTyping(c Conn, t TypingPayload) {
	if !h.presence.Joined(c) {
		return
	}
	targets := h.presence.Clients(t.ReceiverID)
	if len(targets) == 0 {
		return
	}
	ev := Event{Event: EventTypingStatus, Data: TypingStatus{SenderID: t.SenderID, IsTyping: t.IsTyping}}
	for _, target := range targets {
		if target.Enqueue(ev) {
			metrics.TypingRelayed.Inc()
		}
	}
}

// persistAndDeliver runs on a connection's send-queue goroutine: persist,
// then hand the stored record to the loop for fan-out. On a store failure
// the sender gets an explicit send_error ack instead of silence.
func (h *Hub) persistAndDeliver(c Conn, p SendPayload) {
	if !h.presence.Joined(c) {
		h.logger.Warn("dropping send_message from un-joined connection", "conn_id", c.ID())
		return
	}

	msg, err := h.store.Send(p.SenderID, p.ReceiverID, p.Content, time.Time{})
	if err != nil {
		h.logger.LogError(err, "failed to persist message",
			"sender_id", p.SenderID,
			"receiver_id", p.ReceiverID,
		)
		c.Enqueue(Event{Event: EventSendError, Data: SendError{Message: "message could not be saved"}})
		return
	}
	h.deliver <- msg
}

// fanOut pushes a stored message to the receiver's room and echoes it to
// the sender's room so the sender's other devices stay current. Offline
// rooms are skipped; history is the catch-up path.
func (h *Hub) fanOut(stored *models.Message) {
	// Work on a copy: the HTTP gateway may still be serializing the
	// stored record it handed us.
	msg := *stored
	if name, ok := h.directory.DisplayName(msg.SenderID); ok {
		msg.SenderName = name
	}

	ev := Event{Event: EventReceiveMessage, Data: &msg}
	h.sendToRoom(msg.ReceiverID, ev)
	if msg.SenderID != msg.ReceiverID {
		h.sendToRoom(msg.SenderID, ev)
	}
}

func (h *Hub) sendToRoom(userID string, ev Event) {
	var stalled []Conn
	for _, c := range h.presence.Clients(userID) {
		if c.Enqueue(ev) {
			metrics.MessagesDelivered.Inc()
		} else {
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		h.logger.Warn("dropping stalled connection", "conn_id", c.ID())
		h.dropConn(c)
	}
}

// dropConn detaches a connection exactly once and broadcasts the updated
// roster to everyone still attached.
func (h *Hub) dropConn(c Conn) {
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	metrics.ActiveConnections.Dec()

	userID, joined := h.presence.Leave(c)
	c.Close()
	if joined {
		h.logger.Info("user left room", "user_id", userID, "conn_id", c.ID())
	}
	h.broadcastRoster()
}

// broadcastRoster pushes the full online roster to every attached
// connection, joined or not. Full-roster broadcasts are idempotent and
// convergent: clients replace their local online-set wholesale.
func (h *Hub) broadcastRoster() {
	ids := h.presence.OnlineUserIDs()
	metrics.OnlineUsers.Set(float64(len(ids)))

	ev := Event{Event: EventOnlineUsers, Data: ids}
	var stalled []Conn
	for c := range h.conns {
		if !c.Enqueue(ev) {
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		h.logger.Warn("dropping stalled connection", "conn_id", c.ID())
		h.dropConn(c)
	}
}
