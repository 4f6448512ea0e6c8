package repository

import (
	"context"

	"invoiceflow/internal/model"

	"gorm.io/gorm"
)

type PurchaseOrderRepository interface {
	FindByPONumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error)
	Create(ctx context.Context, po *model.PurchaseOrder) error
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) FindByPONumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := r.db.WithContext(ctx).First(&po, "po_number = ?", poNumber).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepository) Create(ctx context.Context, po *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}
