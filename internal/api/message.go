package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/service"
	apperrors "appnexus-chat/backend/pkg/errors"
	"appnexus-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MessageSender is the slice of the message service the gateway needs.
type MessageSender interface {
	Send(senderID, receiverID, content string, ts time.Time) (*models.Message, error)
	Conversation(userA, userB string, before time.Time, limit int) ([]models.Message, error)
}

// Deliverer pushes a stored message into the real-time fan-out layer.
type Deliverer interface {
	Deliver(*models.Message)
}

// NameResolver resolves a user identity to a display name, best-effort.
type NameResolver interface {
	DisplayName(id string) (string, bool)
}

// MessageController is the HTTP ingress for messages: clients that are not
// holding a websocket open send and page history through here. Persistence
// and delivery go through the same service and hub as the websocket path.
type MessageController struct {
	messages  MessageSender
	hub       Deliverer
	directory NameResolver
	logger    *logger.Logger
}

func NewMessageController(messages MessageSender, hub Deliverer, directory NameResolver, log *logger.Logger) *MessageController {
	return &MessageController{
		messages:  messages,
		hub:       hub,
		directory: directory,
		logger:    log,
	}
}

// RegisterRoutesV1 registers the versioned message routes
func (c *MessageController) RegisterRoutesV1(v1 *gin.RouterGroup) {
	v1.POST("/messages", c.SendMessage)
	v1.GET("/conversations/:userA/:userB", c.GetConversation)
}

// RegisterRoutes registers the legacy message routes kept for clients that
// predate API versioning
func (c *MessageController) RegisterRoutes(router *gin.Engine) {
	legacy := router.Group("/api/messages")
	{
		legacy.POST("", c.SendMessage)
		legacy.GET("/:userA/:userB", c.GetConversation)
	}
}

// SendMessage persists a message and fans it out to both parties' rooms
func (c *MessageController) SendMessage(ctx *gin.Context) {
	var req struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Content    string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	msg, err := c.messages.Send(req.SenderID, req.ReceiverID, req.Content, time.Time{})
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
			return
		}
		c.logger.LogError(err, "failed to persist message",
			"sender_id", req.SenderID,
			"receiver_id", req.ReceiverID,
		)
		ctx.Error(apperrors.NewStorageError())
		return
	}

	// Enrichment is best-effort; the message goes out with or without it.
	if name, ok := c.directory.DisplayName(msg.SenderID); ok {
		msg.SenderName = name
	}

	c.hub.Deliver(msg)

	ctx.JSON(http.StatusCreated, msg)
}

// GetConversation returns a page of the history between two users,
// oldest first. Pass the timestamp of the oldest message already seen as
// ?before= to page backwards.
func (c *MessageController) GetConversation(ctx *gin.Context) {
	userA := ctx.Param("userA")
	userB := ctx.Param("userB")

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	var before time.Time
	if raw := ctx.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid before timestamp, expected RFC 3339"})
			return
		}
		before = parsed
	}

	messages, err := c.messages.Conversation(userA, userB, before, limit)
	if err != nil {
		c.logger.LogError(err, "failed to load conversation", "user_a", userA, "user_b", userB)
		ctx.Error(apperrors.NewStorageError())
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	ctx.JSON(http.StatusOK, messages)
}
