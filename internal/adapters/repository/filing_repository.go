package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// filingRepository implements core.FilingRepository using GORM.
type filingRepository struct {
	db *gorm.DB
}

// NewFilingRepository creates a filing repository.
func NewFilingRepository(db *gorm.DB) core.FilingRepository {
	return &filingRepository{db: db}
}

func (r *filingRepository) CreateFiling(ctx context.Context, filing *core.AttachmentFiling) error {
	if err := r.db.WithContext(ctx).Create(filing).Error; err != nil {
		return fmt.Errorf("failed to create filing: %w", err)
	}
	return nil
}

func (r *filingRepository) UpdateFiling(ctx context.Context, filing *core.AttachmentFiling) error {
	result := r.db.WithContext(ctx).Save(filing)
	if result.Error != nil {
		return fmt.Errorf("failed to update filing: %w", result.Error)
	}
	return nil
}

func (r *filingRepository) ListByMessage(ctx context.Context, messageID uint) ([]core.AttachmentFiling, error) {
	var filings []core.AttachmentFiling
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id").Find(&filings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list filings: %w", err)
	}
	return filings, nil
}
