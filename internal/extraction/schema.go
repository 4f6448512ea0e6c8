package extraction

// invoiceFieldNames is the declared 45-field target schema, grouped as:
// vendor info (10), bank details (5), invoice header (10), amounts (8),
// line items, terms/delivery (7), additional (5).
var invoiceFieldNames = []string{
	"vendor_name", "vendor_address", "vendor_city", "vendor_state", "vendor_zip",
	"vendor_tax_id", "vendor_email", "vendor_phone", "vendor_contact", "vendor_website",

	"bank_name", "bank_account", "routing_number", "swift_code", "iban",

	"invoice_number", "invoice_date", "due_date", "issue_date", "po_number",
	"grn_number", "contract_number", "requisition_number", "currency", "exchange_rate",

	"subtotal", "tax", "tax_rate", "shipping", "handling", "discount", "total", "amount_due",

	"line_items",

	"payment_terms", "payment_method", "delivery_date", "delivery_address",
	"billing_address", "shipping_method", "tracking_number",

	"notes", "terms_conditions", "approved_by", "prepared_by", "invoice_type",
}

// numericFieldNames are the schema's number-typed fields.
var numericFieldNames = map[string]bool{
	"exchange_rate": true,
	"subtotal":      true,
	"tax":           true,
	"tax_rate":      true,
	"shipping":      true,
	"handling":      true,
	"discount":      true,
	"total":         true,
	"amount_due":    true,
}

// invoiceSchema builds the JSON schema sent to the extraction service.
func invoiceSchema() map[string]any {
	props := make(map[string]any, len(invoiceFieldNames))
	for _, name := range invoiceFieldNames {
		switch {
		case name == "line_items":
			props[name] = map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"line_number": map[string]any{"type": "integer"},
						"description": map[string]any{"type": "string"},
						"quantity":    map[string]any{"type": "number"},
						"unit_price":  map[string]any{"type": "number"},
						"line_total":  map[string]any{"type": "number"},
						"tax_code":    map[string]any{"type": "string"},
						"po_line_ref": map[string]any{"type": "string"},
					},
				},
			}
		case numericFieldNames[name]:
			props[name] = map[string]any{"type": "number"}
		default:
			props[name] = map[string]any{"type": "string"}
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"vendor_name", "invoice_number", "total"},
	}
}
