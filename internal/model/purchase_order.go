package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is a read-only reference record supplied by procurement.
// The validation core never creates or mutates these rows.
type PurchaseOrder struct {
	PONumber      string          `gorm:"type:varchar(50);primaryKey" json:"po_number"`
	VendorID      string          `gorm:"type:varchar(50);not null;index" json:"vendor_id"`
	VendorName    string          `gorm:"type:varchar(255)" json:"vendor_name"`
	PODate        time.Time       `gorm:"type:date" json:"po_date"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4)" json:"total"`
	Currency      string          `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	LineItems     string          `gorm:"type:text" json:"-"` // JSON array
	PaymentTerms  string          `gorm:"type:varchar(100)" json:"payment_terms"`
	DeliveryTerms string          `gorm:"type:varchar(100)" json:"delivery_terms"`
	Status        string          `gorm:"type:varchar(20);default:'APPROVED'" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
