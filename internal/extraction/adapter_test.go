package extraction

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeDocClient struct {
	parseMarkdown string
	parseErr      error
	fields        map[string]any
	confidence    map[string]float64
	extractErr    error
	extractCalls  int
}

func (f *fakeDocClient) Parse(ctx context.Context, document []byte, filename string) (string, error) {
	return f.parseMarkdown, f.parseErr
}

func (f *fakeDocClient) Extract(ctx context.Context, markdown string) (map[string]any, map[string]float64, error) {
	f.extractCalls++
	if f.extractErr != nil {
		return nil, nil, f.extractErr
	}
	return f.fields, f.confidence, nil
}

type fakeCompleter struct {
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestAdapter(docs DocumentClient, completer *fakeCompleter) *Adapter {
	a := NewAdapter(docs, completer, quietLogger())
	a.retryDelay = time.Millisecond
	return a
}

func TestExtractDocumentServiceSuccess(t *testing.T) {
	docs := &fakeDocClient{
		parseMarkdown: "# Invoice INV-1",
		fields:        map[string]any{"invoice_number": "INV-1", "po_number": "PO-1", "total": "$500.00"},
		confidence:    map[string]float64{"invoice_number": 0.98},
	}
	completer := &fakeCompleter{}
	a := newTestAdapter(docs, completer)

	result := a.Extract(context.Background(), []byte("doc"), "invoice.pdf")

	if result.Source != "docext" {
		t.Errorf("Source = %q, want docext", result.Source)
	}
	if result.Fields["total"] != 500.0 {
		t.Errorf("total = %v, want coerced 500.0", result.Fields["total"])
	}
	if result.ConfidenceScores["invoice_number"] != 0.98 {
		t.Errorf("confidence not propagated: %v", result.ConfidenceScores)
	}
	if result.FieldCount != 3 {
		t.Errorf("FieldCount = %d, want 3", result.FieldCount)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times on the docext path", completer.calls)
	}
	if result.QualityScore <= 0 {
		t.Errorf("QualityScore = %v, want > 0", result.QualityScore)
	}
}

func TestExtractRetriesThenLLMFallback(t *testing.T) {
	docs := &fakeDocClient{
		parseMarkdown: "Invoice text",
		extractErr:    errors.New("service unavailable"),
	}
	completer := &fakeCompleter{text: `{"invoice_number": "INV-2", "po_number": "PO-2"}`}
	a := newTestAdapter(docs, completer)

	result := a.Extract(context.Background(), []byte("doc"), "invoice.pdf")

	if docs.extractCalls != 3 {
		t.Errorf("extract attempts = %d, want 3", docs.extractCalls)
	}
	if result.Source != "llm" {
		t.Errorf("Source = %q, want llm", result.Source)
	}
	if result.Fields["invoice_number"] != "INV-2" {
		t.Errorf("invoice_number = %v", result.Fields["invoice_number"])
	}
}

func TestExtractLLMHandlesCodeFence(t *testing.T) {
	docs := &fakeDocClient{parseMarkdown: "Invoice text", extractErr: errors.New("down")}
	completer := &fakeCompleter{text: "```json\n{\"invoice_number\": \"INV-3\"}\n```"}
	a := newTestAdapter(docs, completer)

	result := a.Extract(context.Background(), []byte("doc"), "invoice.pdf")

	if result.Source != "llm" {
		t.Errorf("Source = %q, want llm", result.Source)
	}
	if result.Fields["invoice_number"] != "INV-3" {
		t.Errorf("invoice_number = %v", result.Fields["invoice_number"])
	}
}

func TestExtractRegexLastResort(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("api key missing")}
	a := newTestAdapter(nil, completer)

	document := []byte("Acme Corp\nInvoice #: INV-4\nPO #: PO-4\nTotal: 99.00\n")
	result := a.Extract(context.Background(), document, "invoice.pdf")

	if result.Source != "regex" {
		t.Errorf("Source = %q, want regex", result.Source)
	}
	if result.Fields["invoice_number"] != "INV-4" {
		t.Errorf("invoice_number = %v", result.Fields["invoice_number"])
	}
	if result.Fields["po_number"] != "PO-4" {
		t.Errorf("po_number = %v", result.Fields["po_number"])
	}
}

func TestExtractNeverFailsOnGarbage(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("unreachable")}
	a := newTestAdapter(nil, completer)

	result := a.Extract(context.Background(), []byte{0x00, 0x01, 0x02}, "invoice.pdf")

	if result.QualityScore != 0 {
		t.Errorf("QualityScore = %v, want 0", result.QualityScore)
	}
	if result.Fields == nil {
		t.Error("Fields should be an empty map, not nil")
	}
}
