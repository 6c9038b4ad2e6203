package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/gorm"
)

// MessageListOptions narrows and pages a message listing. Before is a
// keyset cursor on created_at; RequirementID and DesignID filter the
// listing to messages tagged with that entity.
type MessageListOptions struct {
	Before        *time.Time
	Limit         int
	RequirementID *uint
	DesignID      *uint
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	CreateAttachments(ctx context.Context, messageID uint, attachments []models.Attachment) error
	CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID uint, opts MessageListOptions) ([]models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uint, upTo time.Time) (int64, error)
	CountUnread(ctx context.Context, conversationID, readerID uint) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		return fmt.Errorf("failed to create message: %w", result.Error)
	}
	return nil
}

// CreateAttachments bulk-inserts attachment rows for an existing message.
// An empty slice is a no-op.
func (r *messageRepository) CreateAttachments(ctx context.Context, messageID uint, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].MessageID = messageID
	}
	if err := r.db.WithContext(ctx).Create(&attachments).Error; err != nil {
		return fmt.Errorf("failed to create attachments: %w", err)
	}
	return nil
}

// CreateWithAttachments creates a message with its attachments in a transaction
func (r *messageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Create message first
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		// Create attachments with message ID
		for i := range attachments {
			attachments[i].MessageID = message.ID
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return fmt.Errorf("failed to create attachment: %w", err)
			}
		}

		return nil
	})
}

// GetByID retrieves a message by its ID with preloaded attachments
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Preload("Attachments").First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// ListByConversation retrieves a page of messages for a conversation with
// preloaded attachments, oldest first. The newest page is fetched by
// selecting created_at descending up to the limit, then reversing, so the
// caller always receives chronological order regardless of cursor position.
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uint, opts MessageListOptions) ([]models.Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID)

	if opts.Before != nil {
		query = query.Where("created_at < ?", *opts.Before)
	}
	if opts.RequirementID != nil {
		query = query.Where("requirement_id = ?", *opts.RequirementID)
	}
	if opts.DesignID != nil {
		query = query.Where("design_id = ?", *opts.DesignID)
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkRead marks the peer's messages in a conversation as read up to the
// given timestamp. Only rows the reader did not send are flipped; rows
// already read are left untouched, so repeated calls return zero. Returns
// the number of messages updated.
func (r *messageRepository) MarkRead(ctx context.Context, conversationID, readerID uint, upTo time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND created_at < ? AND is_read = ?",
			conversationID, readerID, upTo, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountUnread counts messages in a conversation the reader has not seen
func (r *messageRepository) CountUnread(ctx context.Context, conversationID, readerID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", result.Error)
	}
	return count, nil
}
