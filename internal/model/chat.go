package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage stores one Q&A exchange about an invoice.
type ChatMessage struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID  uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text" json:"answer"`
	SubQueries string    `gorm:"type:text" json:"-"` // JSON array
	Citations  string    `gorm:"type:text" json:"-"` // JSON array
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
