package model

import "time"

// GoodsReceipt records what the warehouse actually received against a PO.
// Read-only reference data from the validation core's perspective.
type GoodsReceipt struct {
	GRNNumber     string    `gorm:"type:varchar(50);primaryKey" json:"grn_number"`
	PONumber      string    `gorm:"type:varchar(50);not null;index" json:"po_number"`
	VendorID      string    `gorm:"type:varchar(50)" json:"vendor_id"`
	DeliveryDate  time.Time `gorm:"type:date" json:"delivery_date"`
	ReceivedItems string    `gorm:"type:text" json:"-"` // JSON array
	Inspector     string    `gorm:"type:varchar(100)" json:"inspector"`
	Notes         string    `gorm:"type:text" json:"notes"`
	Status        string    `gorm:"type:varchar(20);default:'RECEIVED'" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
