package repository

import (
	"context"

	"invoiceflow/internal/model"

	"gorm.io/gorm"
)

type VendorRepository interface {
	FindByVendorID(ctx context.Context, vendorID string) (*model.Vendor, error)
	Create(ctx context.Context, vendor *model.Vendor) error
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) FindByVendorID(ctx context.Context, vendorID string) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}
