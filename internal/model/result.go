package model

import "time"

// Match status enum constants
const (
	MatchStatusMatch    = "MATCH"
	MatchStatusPartial  = "PARTIAL"
	MatchStatusMismatch = "MISMATCH"
	MatchStatusUnknown  = "UNKNOWN"
)

// Risk level enum constants
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// Fraud signal types
const (
	SignalBankChange    = "BANK_CHANGE"
	SignalDuplicate     = "DUPLICATE"
	SignalAmountAnomaly = "AMOUNT_ANOMALY"
	SignalVelocity      = "VELOCITY"
	SignalSystem        = "SYSTEM"
	SignalOther         = "OTHER"
)

// FraudCheckNames are the four checks every FraudResult must account for.
var FraudCheckNames = []string{"bank_change", "duplicate", "amount_anomaly", "velocity"}

// ExtractionResult is the immutable output of the extraction adapter.
type ExtractionResult struct {
	Fields                map[string]any     `json:"fields"`
	ConfidenceScores      map[string]float64 `json:"confidence_scores"`
	QualityScore          float64            `json:"quality_score"`
	ExtractionTimeSeconds float64            `json:"extraction_time_seconds"`
	FieldCount            int                `json:"field_count"`
	Source                string             `json:"source,omitempty"`
	Markdown              string             `json:"markdown,omitempty"`
}

// MatchingResult is the 3-way matching verdict produced once per validation run.
type MatchingResult struct {
	InvoicePOScore      int      `json:"invoice_po_score"`
	InvoicePOStatus     string   `json:"invoice_po_status"`
	InvoicePOMismatches []string `json:"invoice_po_mismatches"`
	InvoiceGRNScore     int      `json:"invoice_grn_score"`
	InvoiceGRNStatus    string   `json:"invoice_grn_status"`
	InvoiceGRNMismatch  []string `json:"invoice_grn_mismatches"`
	OverallStatus       string   `json:"overall_status"`
	OverallScore        int      `json:"overall_score"`
}

// FraudSignal is one observation contributing to the risk score.
type FraudSignal struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	RiskPoints  int    `json:"risk_points"`
}

// FraudResult is the fraud agent's verdict. ChecksPerformed always contains
// exactly the four FraudCheckNames keys.
type FraudResult struct {
	RiskScore       int             `json:"risk_score"`
	RiskLevel       string          `json:"risk_level"`
	Signals         []FraudSignal   `json:"signals"`
	ChecksPerformed map[string]bool `json:"checks_performed"`
}

// RiskLevelForScore buckets a 0-100 risk score into a risk level. The bucketing
// is monotone: a higher score never maps to a lower level.
func RiskLevelForScore(score int) string {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ProcessingEvent is one entry of an invoice's append-only audit trail.
type ProcessingEvent struct {
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewProcessingEvent stamps an event with the current UTC time.
func NewProcessingEvent(stage, message string, payload map[string]any) ProcessingEvent {
	return ProcessingEvent{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

// ValidationResult bundles both agent verdicts with the derived disposition.
type ValidationResult struct {
	Matching       MatchingResult    `json:"matching"`
	Fraud          FraudResult       `json:"fraud"`
	Recommendation string            `json:"recommendation"`
	Reasoning      string            `json:"reasoning"`
	Summary        string            `json:"summary"`
	Insights       []ProcessingEvent `json:"insights"`
}
