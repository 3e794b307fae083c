package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// ruleRepository implements core.RuleRepository using GORM. Rules are
// configured externally and read-only here except for the usage counter.
type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a rule repository.
func NewRuleRepository(db *gorm.DB) core.RuleRepository {
	return &ruleRepository{db: db}
}

// ListEnabled returns enabled rules in ascending priority order, the order
// the matcher evaluates them in.
func (r *ruleRepository) ListEnabled(ctx context.Context) ([]core.FilingRule, error) {
	var rules []core.FilingRule
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority asc, id asc").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list filing rules: %w", err)
	}
	return rules, nil
}

func (r *ruleRepository) IncrementUsage(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&core.FilingRule{}).
		Where("id = ?", id).
		UpdateColumn("times_used", gorm.Expr("times_used + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment rule usage: %w", result.Error)
	}
	return nil
}
