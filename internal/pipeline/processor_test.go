package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"invoiceflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*model.Invoice
}

func newFakeInvoiceRepo(invoices ...*model.Invoice) *fakeInvoiceRepo {
	repo := &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
	for _, inv := range invoices {
		repo.invoices[inv.ID] = inv
	}
	return repo
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[invoice.ID] = invoice
	return nil
}

func (f *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeInvoiceRepo) List(ctx context.Context, limit, offset int) ([]model.Invoice, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		out = append(out, *inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeInvoiceRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range fields {
		switch column {
		case "status":
			inv.Status = value.(string)
		case "recommendation":
			inv.Recommendation = value.(string)
		case "invoice_number":
			inv.InvoiceNumber = value.(string)
		case "vendor_id":
			inv.VendorID = value.(string)
		case "po_number":
			inv.PONumber = value.(string)
		case "grn_number":
			inv.GRNNumber = value.(string)
		case "extracted_data":
			inv.ExtractedData = value.(string)
		case "matching_result":
			inv.MatchingResult = value.(string)
		case "fraud_result":
			inv.FraudResult = value.(string)
		case "processing_log":
			inv.ProcessingLog = value.(string)
		case "processed_at":
			inv.ProcessedAt = value.(*time.Time)
		}
	}
	return nil
}

func (f *fakeInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.invoices, id)
	return nil
}

func (f *fakeInvoiceRepo) CountByStatuses(ctx context.Context, statuses []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, inv := range f.invoices {
		for _, s := range statuses {
			if inv.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

type fakePORepo struct {
	orders map[string]*model.PurchaseOrder
}

func (f *fakePORepo) FindByPONumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	po, ok := f.orders[poNumber]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return po, nil
}

func (f *fakePORepo) Create(ctx context.Context, po *model.PurchaseOrder) error {
	f.orders[po.PONumber] = po
	return nil
}

type fakeGRNRepo struct {
	receipts map[string]*model.GoodsReceipt
}

func (f *fakeGRNRepo) FindByGRNNumber(ctx context.Context, grnNumber string) (*model.GoodsReceipt, error) {
	grn, ok := f.receipts[grnNumber]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return grn, nil
}

func (f *fakeGRNRepo) FindLatestByPONumber(ctx context.Context, poNumber string) (*model.GoodsReceipt, error) {
	var latest *model.GoodsReceipt
	for _, grn := range f.receipts {
		if grn.PONumber != poNumber {
			continue
		}
		if latest == nil ||
			grn.DeliveryDate.After(latest.DeliveryDate) ||
			(grn.DeliveryDate.Equal(latest.DeliveryDate) && grn.GRNNumber > latest.GRNNumber) {
			latest = grn
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeGRNRepo) Create(ctx context.Context, grn *model.GoodsReceipt) error {
	f.receipts[grn.GRNNumber] = grn
	return nil
}

type fakeVendorRepo struct {
	vendors map[string]*model.Vendor
}

func (f *fakeVendorRepo) FindByVendorID(ctx context.Context, vendorID string) (*model.Vendor, error) {
	vendor, ok := f.vendors[vendorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

func (f *fakeVendorRepo) Create(ctx context.Context, vendor *model.Vendor) error {
	f.vendors[vendor.VendorID] = vendor
	return nil
}

type fakeExtractor struct {
	result model.ExtractionResult
}

func (f *fakeExtractor) Extract(ctx context.Context, document []byte, filename string) model.ExtractionResult {
	return f.result
}

type fakeValidator struct {
	result     model.ValidationResult
	gotQuality float64
}

func (f *fakeValidator) Validate(ctx context.Context, extraction, po, grn, vendor map[string]any, extractionQuality float64) model.ValidationResult {
	f.gotQuality = extractionQuality
	return f.result
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeBroadcaster) BroadcastInvoiceStatus(invoiceID, status, recommendation string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, status)
}

// --- fixtures ---

type pipelineFixture struct {
	invoices  *fakeInvoiceRepo
	orders    *fakePORepo
	receipts  *fakeGRNRepo
	vendors   *fakeVendorRepo
	extractor *fakeExtractor
	validator *fakeValidator
	hub       *fakeBroadcaster
	processor *Processor
	invoiceID uuid.UUID
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	invoiceID := uuid.New()
	seeded, _ := json.Marshal([]model.ProcessingEvent{
		model.NewProcessingEvent("UPLOAD", "Invoice uploaded and queued for extraction.", nil),
	})
	invoice := &model.Invoice{
		ID:            invoiceID,
		Filename:      "invoice.pdf",
		Status:        model.StatusProcessing,
		ProcessingLog: string(seeded),
	}

	f := &pipelineFixture{
		invoices: newFakeInvoiceRepo(invoice),
		orders: &fakePORepo{orders: map[string]*model.PurchaseOrder{
			"PO-1": {PONumber: "PO-1", VendorID: "VEND-1", Total: decimal.NewFromFloat(500)},
		}},
		receipts: &fakeGRNRepo{receipts: map[string]*model.GoodsReceipt{
			"GRN-1": {GRNNumber: "GRN-1", PONumber: "PO-1", DeliveryDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
			"GRN-2": {GRNNumber: "GRN-2", PONumber: "PO-1", DeliveryDate: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		}},
		vendors: &fakeVendorRepo{vendors: map[string]*model.Vendor{
			"VEND-1": {VendorID: "VEND-1", VendorName: "Acme"},
		}},
		extractor: &fakeExtractor{result: model.ExtractionResult{
			Fields:       map[string]any{"invoice_number": "INV-1", "po_number": "PO-1", "total": 500.0},
			QualityScore: 90,
		}},
		validator: &fakeValidator{result: model.ValidationResult{
			Matching:       model.MatchingResult{OverallScore: 95, OverallStatus: model.MatchStatusMatch},
			Fraud:          model.FraudResult{RiskScore: 5, RiskLevel: model.RiskLow},
			Recommendation: model.RecommendApprove,
			Insights: []model.ProcessingEvent{
				model.NewProcessingEvent("MATCH_AGENT", "totals agree", nil),
			},
		}},
		hub:       &fakeBroadcaster{},
		invoiceID: invoiceID,
	}
	f.processor = NewProcessor(f.invoices, f.orders, f.receipts, f.vendors, f.extractor, f.validator, f.hub, log)
	return f
}

func (f *pipelineFixture) invoice(t *testing.T) *model.Invoice {
	t.Helper()
	inv, err := f.invoices.FindByID(context.Background(), f.invoiceID)
	if err != nil {
		t.Fatalf("invoice disappeared: %v", err)
	}
	return inv
}

func (f *pipelineFixture) events(t *testing.T) []model.ProcessingEvent {
	t.Helper()
	var events []model.ProcessingEvent
	if err := json.Unmarshal([]byte(f.invoice(t).ProcessingLog), &events); err != nil {
		t.Fatalf("processing log not valid JSON: %v", err)
	}
	return events
}

// --- tests ---

func TestProcessCompletesAndApproves(t *testing.T) {
	f := newFixture(t)

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	inv := f.invoice(t)
	if inv.Status != model.StatusCompleted {
		t.Fatalf("status = %q, want COMPLETED", inv.Status)
	}
	if inv.Recommendation != model.RecommendApprove {
		t.Errorf("recommendation = %q", inv.Recommendation)
	}
	if inv.PONumber != "PO-1" || inv.VendorID != "VEND-1" || inv.GRNNumber != "GRN-2" {
		t.Errorf("reference fields = %q/%q/%q", inv.PONumber, inv.VendorID, inv.GRNNumber)
	}
	if inv.InvoiceNumber != "INV-1" {
		t.Errorf("invoice_number = %q", inv.InvoiceNumber)
	}
	if inv.ProcessedAt == nil {
		t.Error("processed_at not set")
	}
	if inv.ExtractedData == "" || inv.MatchingResult == "" || inv.FraudResult == "" {
		t.Error("result payloads not persisted")
	}
	if f.validator.gotQuality != 90 {
		t.Errorf("validator quality = %v, want 90", f.validator.gotQuality)
	}

	stages := []string{}
	for _, e := range f.events(t) {
		stages = append(stages, e.Stage)
	}
	want := []string{"UPLOAD", "MATCHING", "MATCH_AGENT", "VALIDATION"}
	if len(stages) != len(want) {
		t.Fatalf("event stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("event stages = %v, want %v", stages, want)
		}
	}
}

func TestProcessBroadcastsEveryTransition(t *testing.T) {
	f := newFixture(t)

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	want := []string{model.StatusExtracting, model.StatusMatching, model.StatusFraudCheck, model.StatusCompleted}
	if len(f.hub.events) != len(want) {
		t.Fatalf("broadcasts = %v, want %v", f.hub.events, want)
	}
	for i := range want {
		if f.hub.events[i] != want[i] {
			t.Fatalf("broadcasts = %v, want %v", f.hub.events, want)
		}
	}
}

func TestProcessNoPONumber(t *testing.T) {
	f := newFixture(t)
	f.extractor.result = model.ExtractionResult{
		Fields:       map[string]any{"invoice_number": "INV-1"},
		QualityScore: 40,
	}

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	inv := f.invoice(t)
	if inv.Status != model.StatusNoPONumber {
		t.Fatalf("status = %q, want NO_PO_NUMBER", inv.Status)
	}
	if inv.Recommendation != model.RecommendNeedsReview {
		t.Errorf("recommendation = %q, want NEEDS_REVIEW", inv.Recommendation)
	}
	if inv.ProcessedAt == nil {
		t.Error("processed_at not set on early exit")
	}

	events := f.events(t)
	if len(events) != 2 {
		t.Fatalf("event count = %d, want 2 (upload + failure)", len(events))
	}
	if events[1].Stage != "MATCHING" || events[1].Message != "Failed: No PO number found in extraction." {
		t.Errorf("failure event = %+v", events[1])
	}
}

func TestProcessPONotFound(t *testing.T) {
	f := newFixture(t)
	f.extractor.result.Fields["po_number"] = "PO-MISSING"

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	inv := f.invoice(t)
	if inv.Status != model.StatusNoPOFound {
		t.Fatalf("status = %q, want NO_PO_FOUND", inv.Status)
	}
	events := f.events(t)
	if events[len(events)-1].Message != "PO PO-MISSING not found in database." {
		t.Errorf("last event = %+v", events[len(events)-1])
	}
}

func TestProcessNoGRNFound(t *testing.T) {
	f := newFixture(t)
	f.receipts.receipts = map[string]*model.GoodsReceipt{}

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	if got := f.invoice(t).Status; got != model.StatusNoGRNFound {
		t.Fatalf("status = %q, want NO_GRN_FOUND", got)
	}
}

func TestProcessNoVendorFound(t *testing.T) {
	f := newFixture(t)
	f.vendors.vendors = map[string]*model.Vendor{}

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	inv := f.invoice(t)
	if inv.Status != model.StatusNoVendorFound {
		t.Fatalf("status = %q, want NO_VENDOR_FOUND", inv.Status)
	}
	if inv.Recommendation != model.RecommendNeedsReview {
		t.Errorf("recommendation = %q", inv.Recommendation)
	}
}

func TestProcessExactGRNTakesPrecedence(t *testing.T) {
	f := newFixture(t)
	// Extraction names the older receipt explicitly; the newer GRN-2 must not win.
	f.extractor.result.Fields["grn_number"] = "GRN-1"

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	if got := f.invoice(t).GRNNumber; got != "GRN-1" {
		t.Errorf("grn_number = %q, want explicitly referenced GRN-1", got)
	}
}

func TestProcessUnknownGRNReferenceFallsBack(t *testing.T) {
	f := newFixture(t)
	f.extractor.result.Fields["grn_number"] = "GRN-NOPE"

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	if got := f.invoice(t).GRNNumber; got != "GRN-2" {
		t.Errorf("grn_number = %q, want latest GRN-2", got)
	}
}

func TestProcessSkipsNonProcessingInvoice(t *testing.T) {
	f := newFixture(t)
	seedLog := f.invoice(t).ProcessingLog
	_ = f.invoices.UpdateFields(context.Background(), f.invoiceID, map[string]any{"status": model.StatusCompleted})

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	inv := f.invoice(t)
	if inv.Status != model.StatusCompleted {
		t.Errorf("status = %q, reprocessing must not happen", inv.Status)
	}
	if inv.ProcessingLog != seedLog {
		t.Error("processing log changed on a skipped invoice")
	}
	if len(f.hub.events) != 0 {
		t.Errorf("broadcasts on skipped invoice: %v", f.hub.events)
	}
}

func TestProcessMissingInvoice(t *testing.T) {
	f := newFixture(t)

	f.processor.Process(context.Background(), uuid.New(), []byte("doc"), "invoice.pdf")

	if len(f.hub.events) != 0 {
		t.Errorf("broadcasts for unknown invoice: %v", f.hub.events)
	}
}

func TestProcessLogIsAppendOnly(t *testing.T) {
	f := newFixture(t)

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	events := f.events(t)
	if events[0].Stage != "UPLOAD" {
		t.Errorf("seeded upload event lost: %+v", events[0])
	}
	for _, e := range events {
		if e.Timestamp == "" {
			t.Errorf("event without timestamp: %+v", e)
		}
		if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
			t.Errorf("timestamp %q not RFC3339", e.Timestamp)
		}
	}
}

func TestProcessPanicBecomesFailed(t *testing.T) {
	f := newFixture(t)
	f.processor.extractor = panickyExtractor{}

	f.processor.Process(context.Background(), f.invoiceID, []byte("doc"), "invoice.pdf")

	inv := f.invoice(t)
	if inv.Status != model.StatusFailed {
		t.Fatalf("status = %q, want FAILED", inv.Status)
	}
	events := f.events(t)
	last := events[len(events)-1]
	if last.Stage != "ERROR" {
		t.Errorf("last event = %+v, want ERROR stage", last)
	}
}

type panickyExtractor struct{}

func (panickyExtractor) Extract(ctx context.Context, document []byte, filename string) model.ExtractionResult {
	panic("extractor exploded")
}
