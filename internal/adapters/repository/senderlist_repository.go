package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// senderListRepository implements core.SenderListRepository using GORM.
type senderListRepository struct {
	db *gorm.DB
}

// NewSenderListRepository creates a sender-list repository.
func NewSenderListRepository(db *gorm.DB) core.SenderListRepository {
	return &senderListRepository{db: db}
}

func (r *senderListRepository) ListBlocked(ctx context.Context) ([]core.BlockedSender, error) {
	var blocked []core.BlockedSender
	if err := r.db.WithContext(ctx).Find(&blocked).Error; err != nil {
		return nil, fmt.Errorf("failed to list blocked senders: %w", err)
	}
	return blocked, nil
}

func (r *senderListRepository) ListTrusted(ctx context.Context) ([]core.TrustedSender, error) {
	var trusted []core.TrustedSender
	if err := r.db.WithContext(ctx).Find(&trusted).Error; err != nil {
		return nil, fmt.Errorf("failed to list trusted senders: %w", err)
	}
	return trusted, nil
}

// BlockSender records an auto-block entry. Re-blocking an already blocked
// pattern is not an error.
func (r *senderListRepository) BlockSender(ctx context.Context, entry *core.BlockedSender) error {
	var existing core.BlockedSender
	err := r.db.WithContext(ctx).
		Where("pattern = ? AND pattern_type = ?", entry.Pattern, entry.PatternType).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to block sender: %w", err)
	}
	return nil
}
