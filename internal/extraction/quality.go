package extraction

import "math"

// coreFields are the 19 fields commonly present on production invoices; their
// coverage is worth 50 points of the quality score.
var coreFields = []string{
	"vendor_name", "vendor_address", "vendor_tax_id",
	"bank_name", "bank_account",
	"invoice_number", "invoice_date", "due_date", "po_number", "currency",
	"subtotal", "tax", "total", "amount_due",
	"payment_terms", "delivery_address", "billing_address",
	"line_items",
	"notes",
}

// criticalFields must be present for processing; worth 40 points.
var criticalFields = []string{"vendor_name", "invoice_number", "total", "invoice_date", "po_number"}

// QualityScore estimates extraction completeness on a 0-100 scale:
// 50 points for core-field coverage, 40 for critical fields, and up to 10
// bonus points for line items (2 per item). An empty field map scores 0.
func QualityScore(fields map[string]any) float64 {
	corePopulated := 0
	for _, f := range coreFields {
		if isPopulated(fields[f]) {
			corePopulated++
		}
	}
	criticalPopulated := 0
	for _, f := range criticalFields {
		if isPopulated(fields[f]) {
			criticalPopulated++
		}
	}

	coreScore := float64(corePopulated) / float64(len(coreFields)) * 50
	criticalScore := float64(criticalPopulated) / float64(len(criticalFields)) * 40

	bonus := 0.0
	if items, ok := fields["line_items"].([]any); ok && len(items) > 0 {
		bonus = math.Min(10, float64(len(items)*2))
	}

	return math.Round(math.Min(100, coreScore+criticalScore+bonus)*10) / 10
}

// isPopulated reports whether a field value counts toward the quality score.
// Nil, empty strings, numeric zero and empty sequences do not.
func isPopulated(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
