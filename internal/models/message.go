package models

import (
	"time"
)

// Message is a single direct message between two users. Records are
// append-only: there are no update or delete paths.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   string    `json:"senderId" gorm:"not null;index:idx_conversation,priority:1"`
	ReceiverID string    `json:"receiverId" gorm:"not null;index:idx_conversation,priority:2"`
	Content    string    `json:"content" gorm:"not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"index:idx_conversation,priority:3,sort:desc"`
	CreatedAt  time.Time `json:"created_at"`

	// SenderName is filled in best-effort from the user directory before
	// the message goes out on the wire. It is never persisted.
	SenderName string `json:"senderName,omitempty" gorm:"-"`
}
