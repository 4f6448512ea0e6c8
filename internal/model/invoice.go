package model

import (
	"time"

	"github.com/google/uuid"
)

// Invoice processing states. COMPLETED, FAILED and the NO_* states are
// terminal: the pipeline never re-enters an invoice once it reaches one.
const (
	StatusProcessing    = "PROCESSING"
	StatusExtracting    = "EXTRACTING"
	StatusMatching      = "MATCHING"
	StatusFraudCheck    = "FRAUD_CHECK"
	StatusCompleted     = "COMPLETED"
	StatusFailed        = "FAILED"
	StatusNoPONumber    = "NO_PO_NUMBER"
	StatusNoPOFound     = "NO_PO_FOUND"
	StatusNoGRNFound    = "NO_GRN_FOUND"
	StatusNoVendorFound = "NO_VENDOR_FOUND"
)

// Recommendation enum constants
const (
	RecommendApprove     = "APPROVE"
	RecommendNeedsReview = "NEEDS_REVIEW"
	RecommendReject      = "REJECT"
)

// TerminalStatuses lists every state the pipeline can end in.
var TerminalStatuses = []string{
	StatusCompleted,
	StatusFailed,
	StatusNoPONumber,
	StatusNoPOFound,
	StatusNoGRNFound,
	StatusNoVendorFound,
}

// IsTerminalStatus reports whether status is one of the terminal states.
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Invoice is the aggregate root for one uploaded document. Compound payloads
// (extraction, matching, fraud, processing log) are serialized JSON text so the
// record survives partial pipeline progress; readers must tolerate malformed
// payloads by treating them as empty.
type Invoice struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber  string     `gorm:"type:varchar(100);index" json:"invoice_number"`
	VendorID       string     `gorm:"type:varchar(50);index" json:"vendor_id"`
	PONumber       string     `gorm:"type:varchar(50);index" json:"po_number"`
	GRNNumber      string     `gorm:"type:varchar(50)" json:"grn_number"`
	Filename       string     `gorm:"type:varchar(255)" json:"filename"`
	ExtractedData  string     `gorm:"type:text" json:"-"`
	MatchingResult string     `gorm:"type:text" json:"-"`
	FraudResult    string     `gorm:"type:text" json:"-"`
	Recommendation string     `gorm:"type:varchar(20)" json:"recommendation"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PROCESSING';index" json:"status"`
	ProcessingLog  string     `gorm:"type:text" json:"-"`
	DecidedBy      *uuid.UUID `gorm:"type:uuid" json:"decided_by"`
	DecidedAt      *time.Time `json:"decided_at"`
	DecisionNotes  string     `gorm:"type:text" json:"decision_notes"`
	UploadedAt     time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
	ProcessedAt    *time.Time `json:"processed_at"`
}
