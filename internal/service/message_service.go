package service

import (
	"errors"
	"time"

	"appnexus-chat/backend/internal/metrics"
	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/repository"
	"appnexus-chat/backend/pkg/config"
)

const (
	// DefaultPageSize is applied to conversation queries that carry no
	// limit, unless configuration overrides it.
	DefaultPageSize = 50
	// MaxPageSize caps client-supplied limits so a single query cannot
	// drag an unbounded result set out of the store.
	MaxPageSize = 200
)

var (
	ErrMissingFields  = errors.New("senderId, receiverId and content are required")
	ErrMessageNotFound = errors.New("message not found")
)

// MessageService owns the append-only message log: validated writes and
// cursor-paginated conversation reads. It never triggers delivery itself;
// both the HTTP gateway and the websocket hub hand stored messages to the
// fan-out layer after a successful Send.
type MessageService struct {
	repo            repository.MessageRepository
	defaultPageSize int
	maxPageSize     int
}

func NewMessageService(repo repository.MessageRepository) *MessageService {
	cfg := config.Get()

	defaultSize := cfg.Chat.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	maxSize := cfg.Chat.MaxPageSize
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}

	return &MessageService{
		repo:            repo,
		defaultPageSize: defaultSize,
		maxPageSize:     maxSize,
	}
}

// Send validates and persists one message. A zero ts resolves to the write
// time. Nothing is persisted when validation fails.
func (s *MessageService) Send(senderID, receiverID, content string, ts time.Time) (*models.Message, error) {
	if senderID == "" || receiverID == "" || content == "" {
		return nil, ErrMissingFields
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  ts,
	}
	if err := s.repo.Create(msg); err != nil {
		metrics.PersistFailures.Inc()
		return nil, err
	}
	metrics.MessagesPersisted.Inc()
	return msg, nil
}

// Conversation returns messages exchanged between the two users with
// timestamps strictly before the cursor, oldest first. A zero cursor means
// "now", which together with the limit gives backward pagination: pass the
// timestamp of the oldest message already seen to fetch the page before it.
func (s *MessageService) Conversation(userA, userB string, before time.Time, limit int) ([]models.Message, error) {
	if before.IsZero() {
		before = time.Now()
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	messages, err := s.repo.ListConversation(userA, userB, before, limit)
	if err != nil {
		return nil, err
	}

	// The store hands pages back newest-first; clients want them in
	// chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
