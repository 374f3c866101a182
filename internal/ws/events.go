package ws

import "encoding/json"

// Wire event names. Inbound events come from clients over the websocket;
// outbound events are pushed by the hub.
const (
	// inbound
	EventJoinRoom    = "join_room"
	EventTyping      = "typing"
	EventSendMessage = "send_message"

	// outbound
	EventOnlineUsers    = "get_online_users"
	EventTypingStatus   = "typing_status"
	EventReceiveMessage = "receive_message"
	EventSendError      = "send_error"
)

// Event is an outbound frame: a tagged payload serialized as one JSON
// object per websocket message.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// inboundFrame defers payload decoding until the event tag is known.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TypingPayload is the inbound typing event.
type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

// TypingStatus is relayed to the receiver's room only.
type TypingStatus struct {
	SenderID string `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
}

// SendPayload is the inbound send_message event.
type SendPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// SendError tells the issuing connection its message was not persisted.
type SendError struct {
	Message string `json:"message"`
}
