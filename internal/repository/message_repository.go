package repository

import (
	"time"

	"appnexus-chat/backend/internal/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.Message) error
	GetByID(id uint) (*models.Message, error)
	ListConversation(userA, userB string, before time.Time, limit int) ([]models.Message, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *GormMessageRepository) GetByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ListConversation returns up to limit messages exchanged between the two
// users with timestamp strictly before the cursor, newest first. The pair
// match is symmetric so either participant can be passed first.
func (r *GormMessageRepository) ListConversation(userA, userB string, before time.Time, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND timestamp < ?",
			userA, userB, userB, userA, before).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
