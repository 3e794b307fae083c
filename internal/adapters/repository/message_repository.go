package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// messageRepository implements core.MessageRepository using GORM.
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a message repository.
func NewMessageRepository(db *gorm.DB) core.MessageRepository {
	return &messageRepository{db: db}
}

// CreateMessage inserts a message. The unique index on provider_message_id
// makes the check-then-act in the scanner safe under concurrent writers; a
// constraint hit surfaces as core.ErrDuplicateMessage.
func (r *messageRepository) CreateMessage(ctx context.Context, msg *core.InboundMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		if isDuplicateKeyError(err) {
			return core.ErrDuplicateMessage
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepository) FindByProviderID(ctx context.Context, providerID string) (*core.InboundMessage, error) {
	var msg core.InboundMessage
	err := r.db.WithContext(ctx).Where("provider_message_id = ?", providerID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message by provider id: %w", err)
	}
	return &msg, nil
}

// UpdateStatus advances a message's status. Transitions are monotonic
// forward; a regression to pending is rejected here rather than silently
// applied.
func (r *messageRepository) UpdateStatus(ctx context.Context, id uint, status core.MessageStatus) error {
	if status == core.MessageStatusPending {
		return fmt.Errorf("message status cannot return to pending")
	}
	result := r.db.WithContext(ctx).Model(&core.InboundMessage{}).
		Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update message status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *messageRepository) UpdateCategory(ctx context.Context, id uint, category core.MessageCategory) error {
	result := r.db.WithContext(ctx).Model(&core.InboundMessage{}).
		Where("id = ?", id).Update("category", category)
	if result.Error != nil {
		return fmt.Errorf("failed to update message category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *messageRepository) CreateAttachment(ctx context.Context, att *core.Attachment) error {
	if err := r.db.WithContext(ctx).Create(att).Error; err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

func (r *messageRepository) ListAttachments(ctx context.Context, messageID uint) ([]core.Attachment, error) {
	var atts []core.Attachment
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id").Find(&atts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return atts, nil
}

func (r *messageRepository) MarkAttachmentProcessed(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&core.Attachment{}).
		Where("id = ?", id).Update("processed", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark attachment processed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *messageRepository) SaveClassification(ctx context.Context, cls *core.MessageClassification) error {
	if err := r.db.WithContext(ctx).Create(cls).Error; err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	return nil
}
