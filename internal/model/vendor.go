package model

import "time"

// Vendor holds master data plus history used by the fraud agent
// (bank details on file, past invoice volume). Read-only reference data.
type Vendor struct {
	VendorID       string    `gorm:"type:varchar(50);primaryKey" json:"vendor_id"`
	VendorName     string    `gorm:"type:varchar(255);not null" json:"vendor_name"`
	TaxID          string    `gorm:"type:varchar(50)" json:"tax_id"`
	BankAccount    string    `gorm:"type:varchar(50)" json:"bank_account"`
	RoutingNumber  string    `gorm:"type:varchar(50)" json:"routing_number"`
	BankName       string    `gorm:"type:varchar(100)" json:"bank_name"`
	Address        string    `gorm:"type:text" json:"address"`
	ContactEmail   string    `gorm:"type:varchar(255)" json:"contact_email"`
	ContactPhone   string    `gorm:"type:varchar(50)" json:"contact_phone"`
	InvoiceHistory string    `gorm:"type:text" json:"-"` // JSON object
	RiskProfile    string    `gorm:"type:text" json:"-"` // JSON object
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
