package extraction

import "testing"

func TestRegexExtract(t *testing.T) {
	text := "Acme Industrial Supplies\nInvoice #: INV-2024-118\nPO #: PO-2024-0042\nTotal: $11,893.50\n"

	got := regexExtract(text)

	if got["vendor_name"] != "Acme Industrial Supplies" {
		t.Errorf("vendor_name = %q", got["vendor_name"])
	}
	if got["invoice_number"] != "INV-2024-118" {
		t.Errorf("invoice_number = %q", got["invoice_number"])
	}
	if got["po_number"] != "PO-2024-0042" {
		t.Errorf("po_number = %q", got["po_number"])
	}
	if got["total"] != 11893.5 {
		t.Errorf("total = %v, want 11893.5", got["total"])
	}
}

func TestRegexExtractNoMatches(t *testing.T) {
	got := regexExtract("")
	if len(got) != 0 {
		t.Errorf("expected no fields, got %v", got)
	}
}

func TestPlainTextStripsBinary(t *testing.T) {
	document := append([]byte{0x00, 0x01}, []byte("Invoice #: INV-1")...)
	document = append(document, 0xff, 0xfe)

	got := plainText(document)

	if got != "Invoice #: INV-1\n" {
		t.Errorf("plainText() = %q", got)
	}
}
