package repository

import (
	"context"

	"marketplace_chat_service/internal/chat/domain"

	"gorm.io/gorm"
)

// MessageRepository persisted message access
type MessageRepository interface {
	AutoMigrate() error
	// BulkInsert write a whole batch as one multi-row INSERT.
	// Duplicate rows from an at-least-once redelivery are accepted.
	BulkInsert(ctx context.Context, msgs []domain.Message) error
	FindByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Message{})
}

func (r *messageRepository) BulkInsert(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&msgs).Error
}

func (r *messageRepository) FindByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
