package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codefyre/backend/internal/model/contact"
)

// MessageRepository is the gorm-backed contact_messages access.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository wraps the database handle.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert stores a new message.
func (r *MessageRepository) Insert(ctx context.Context, msg *contact.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListAll returns every message, newest first.
func (r *MessageRepository) ListAll(ctx context.Context) ([]contact.Message, error) {
	var out []contact.Message
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListBySender returns one sender's messages, newest first.
func (r *MessageRepository) ListBySender(ctx context.Context, senderID string) ([]contact.Message, error) {
	var out []contact.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// SetStatus updates a message's read state.
func (r *MessageRepository) SetStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&contact.Message{}).
		Where("id = ?", id).
		Update("status", status).Error
}
