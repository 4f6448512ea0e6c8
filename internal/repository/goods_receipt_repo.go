package repository

import (
	"context"

	"invoiceflow/internal/model"

	"gorm.io/gorm"
)

type GoodsReceiptRepository interface {
	FindByGRNNumber(ctx context.Context, grnNumber string) (*model.GoodsReceipt, error)
	// FindLatestByPONumber is the fallback when the invoice carries no usable
	// GRN number. Most recent delivery wins; grn_number breaks ties so the
	// choice does not depend on storage order.
	FindLatestByPONumber(ctx context.Context, poNumber string) (*model.GoodsReceipt, error)
	Create(ctx context.Context, grn *model.GoodsReceipt) error
}

type goodsReceiptRepository struct {
	db *gorm.DB
}

func NewGoodsReceiptRepository(db *gorm.DB) GoodsReceiptRepository {
	return &goodsReceiptRepository{db: db}
}

func (r *goodsReceiptRepository) FindByGRNNumber(ctx context.Context, grnNumber string) (*model.GoodsReceipt, error) {
	var grn model.GoodsReceipt
	if err := r.db.WithContext(ctx).First(&grn, "grn_number = ?", grnNumber).Error; err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *goodsReceiptRepository) FindLatestByPONumber(ctx context.Context, poNumber string) (*model.GoodsReceipt, error) {
	var grn model.GoodsReceipt
	err := r.db.WithContext(ctx).
		Where("po_number = ?", poNumber).
		Order("delivery_date desc, grn_number desc").
		First(&grn).Error
	if err != nil {
		return nil, err
	}
	return &grn, nil
}

func (r *goodsReceiptRepository) Create(ctx context.Context, grn *model.GoodsReceipt) error {
	return r.db.WithContext(ctx).Create(grn).Error
}
