package repository

import (
	"context"

	"invoiceflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]model.Invoice, int64, error)
	// UpdateFields applies a partial column update so concurrent pipeline
	// writes never clobber columns they do not own.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatuses(ctx context.Context, statuses []string) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, limit, offset int) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Order("uploaded_at desc").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).Where("id = ?", id).Updates(fields).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Invoice{}, "id = ?", id).Error
}

func (r *invoiceRepository) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("status IN ?", statuses).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
