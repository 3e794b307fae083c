package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// vendorRepository implements core.VendorRepository using GORM. Domain
// membership lives in a serialized JSON column, so the domain match scans
// the (small) vendor table rather than pushing a predicate into SQL.
type vendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository creates a vendor repository.
func NewVendorRepository(db *gorm.DB) core.VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) FindByDomain(ctx context.Context, domain string) (*core.Vendor, error) {
	var vendors []core.Vendor
	if err := r.db.WithContext(ctx).Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	domain = strings.ToLower(domain)
	for i := range vendors {
		for _, d := range vendors[i].EmailDomains {
			if strings.ToLower(d) == domain {
				return &vendors[i], nil
			}
		}
	}
	return nil, core.ErrNotFound
}

func (r *vendorRepository) FindByID(ctx context.Context, id uint) (*core.Vendor, error) {
	var vendor core.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find vendor: %w", err)
	}
	return &vendor, nil
}
