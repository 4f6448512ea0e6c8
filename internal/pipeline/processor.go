package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invoiceflow/internal/model"
	"invoiceflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Extractor is the extraction adapter boundary.
type Extractor interface {
	Extract(ctx context.Context, document []byte, filename string) model.ExtractionResult
}

// Validator is the two-agent validation boundary.
type Validator interface {
	Validate(ctx context.Context, extraction, po, grn, vendor map[string]any, extractionQuality float64) model.ValidationResult
}

// Broadcaster pushes status transitions to connected observers.
type Broadcaster interface {
	BroadcastInvoiceStatus(invoiceID, status, recommendation string)
}

// Processor drives an uploaded invoice through extraction, record lookup,
// validation and final persistence. It runs detached from any request cycle:
// every failure is absorbed into a terminal status with an audit event, and
// both the status and the event log are persisted at each step so pollers see
// partial progress.
type Processor struct {
	invoices  repository.InvoiceRepository
	orders    repository.PurchaseOrderRepository
	receipts  repository.GoodsReceiptRepository
	vendors   repository.VendorRepository
	extractor Extractor
	validator Validator
	hub       Broadcaster
	log       *logrus.Logger
}

func NewProcessor(
	invoices repository.InvoiceRepository,
	orders repository.PurchaseOrderRepository,
	receipts repository.GoodsReceiptRepository,
	vendors repository.VendorRepository,
	extractor Extractor,
	validator Validator,
	hub Broadcaster,
	log *logrus.Logger,
) *Processor {
	return &Processor{
		invoices:  invoices,
		orders:    orders,
		receipts:  receipts,
		vendors:   vendors,
		extractor: extractor,
		validator: validator,
		hub:       hub,
		log:       log,
	}
}

// Process runs the full pipeline for one invoice. It is intended to run in its
// own goroutine; it never returns an error and never panics past its boundary.
// An invoice is processed at most once: anything not in PROCESSING is skipped.
func (p *Processor) Process(ctx context.Context, invoiceID uuid.UUID, document []byte, filename string) {
	logger := p.log.WithField("invoice_id", invoiceID.String())

	invoice, err := p.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		logger.WithError(err).Error("invoice not found, aborting pipeline")
		return
	}
	if invoice.Status != model.StatusProcessing {
		logger.WithField("status", invoice.Status).Warn("invoice already processed, skipping")
		return
	}

	r := &run{p: p, ctx: ctx, invoiceID: invoiceID, log: logger}
	r.events = decodeEvents(invoice.ProcessingLog)

	defer func() {
		if rec := recover(); rec != nil {
			r.fail(fmt.Errorf("panic: %v", rec))
		}
	}()

	p.execute(r, document, filename)
}

func (p *Processor) execute(r *run, document []byte, filename string) {
	// Stage 1: extraction.
	r.setStatus(model.StatusExtracting, "")
	extraction := p.extractor.Extract(r.ctx, document, filename)

	extractedJSON, _ := json.Marshal(extraction)
	if err := p.invoices.UpdateFields(r.ctx, r.invoiceID, map[string]any{
		"extracted_data": string(extractedJSON),
		"invoice_number": stringField(extraction.Fields, "invoice_number"),
	}); err != nil {
		r.fail(fmt.Errorf("persist extraction: %w", err))
		return
	}

	// Stage 2: reference record lookups.
	poNumber := stringField(extraction.Fields, "po_number")
	if poNumber == "" {
		r.logEvent("MATCHING", "Failed: No PO number found in extraction.", nil)
		r.terminal(model.StatusNoPONumber)
		return
	}

	r.setStatus(model.StatusMatching, "")

	po, err := p.orders.FindByPONumber(r.ctx, poNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logEvent("MATCHING", fmt.Sprintf("PO %s not found in database.", poNumber), nil)
			r.terminal(model.StatusNoPOFound)
			return
		}
		r.fail(fmt.Errorf("PO lookup: %w", err))
		return
	}

	// Exact GRN lookup takes precedence over the per-PO fallback.
	var grn *model.GoodsReceipt
	if grnNumber := stringField(extraction.Fields, "grn_number"); grnNumber != "" {
		grn, err = p.receipts.FindByGRNNumber(r.ctx, grnNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			r.fail(fmt.Errorf("GRN lookup: %w", err))
			return
		}
	}
	if grn == nil {
		grn, err = p.receipts.FindLatestByPONumber(r.ctx, poNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			r.fail(fmt.Errorf("GRN lookup: %w", err))
			return
		}
	}
	if grn == nil {
		r.logEvent("MATCHING", fmt.Sprintf("GRN not found for PO %s.", poNumber), nil)
		r.terminal(model.StatusNoGRNFound)
		return
	}

	vendor, err := p.vendors.FindByVendorID(r.ctx, po.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logEvent("MATCHING", fmt.Sprintf("Vendor %s not found.", po.VendorID), nil)
			r.terminal(model.StatusNoVendorFound)
			return
		}
		r.fail(fmt.Errorf("vendor lookup: %w", err))
		return
	}

	r.logEvent("MATCHING", fmt.Sprintf("Found PO %s, GRN %s, and vendor %s. Beginning agentic validation.", poNumber, grn.GRNNumber, vendor.VendorID), nil)

	// Stage 3: two-agent validation.
	r.setStatus(model.StatusFraudCheck, "")

	result := p.validator.Validate(
		r.ctx,
		extraction.Fields,
		poData(po),
		grnData(grn),
		vendorData(vendor),
		extraction.QualityScore,
	)

	r.appendEvents(result.Insights)
	r.logEvent("VALIDATION", fmt.Sprintf(
		"Match %d/100, Risk %d/100, Recommendation %s",
		result.Matching.OverallScore, result.Fraud.RiskScore, result.Recommendation,
	), nil)

	// Stage 4: final persistence.
	matchingJSON, _ := json.Marshal(result.Matching)
	fraudJSON, _ := json.Marshal(result.Fraud)
	now := time.Now().UTC()
	if err := p.invoices.UpdateFields(r.ctx, r.invoiceID, map[string]any{
		"vendor_id":       vendor.VendorID,
		"po_number":       poNumber,
		"grn_number":      grn.GRNNumber,
		"matching_result": string(matchingJSON),
		"fraud_result":    string(fraudJSON),
		"recommendation":  result.Recommendation,
		"status":          model.StatusCompleted,
		"processed_at":    &now,
		"processing_log":  encodeEvents(r.events),
	}); err != nil {
		r.fail(fmt.Errorf("persist result: %w", err))
		return
	}
	r.broadcast(model.StatusCompleted, result.Recommendation)
	r.log.WithField("recommendation", result.Recommendation).Info("invoice processing complete")
}

// run carries the per-invoice pipeline state: the append-only event log and
// persistence helpers that keep it durable at every step.
type run struct {
	p         *Processor
	ctx       context.Context
	invoiceID uuid.UUID
	events    []model.ProcessingEvent
	log       *logrus.Entry
}

func (r *run) logEvent(stage, message string, payload map[string]any) {
	r.events = append(r.events, model.NewProcessingEvent(stage, message, payload))
	r.persistLog()
	r.log.WithField("stage", stage).Info(message)
}

func (r *run) appendEvents(events []model.ProcessingEvent) {
	r.events = append(r.events, events...)
	r.persistLog()
}

func (r *run) persistLog() {
	err := r.p.invoices.UpdateFields(r.ctx, r.invoiceID, map[string]any{
		"processing_log": encodeEvents(r.events),
	})
	if err != nil {
		r.log.WithError(err).Error("failed to persist processing log")
	}
}

func (r *run) setStatus(status, recommendation string) {
	fields := map[string]any{"status": status}
	if recommendation != "" {
		fields["recommendation"] = recommendation
	}
	if err := r.p.invoices.UpdateFields(r.ctx, r.invoiceID, fields); err != nil {
		r.log.WithError(err).Error("failed to persist status")
	}
	r.broadcast(status, recommendation)
}

// terminal parks the invoice in an early-exit state needing human review.
func (r *run) terminal(status string) {
	now := time.Now().UTC()
	if err := r.p.invoices.UpdateFields(r.ctx, r.invoiceID, map[string]any{
		"status":         status,
		"recommendation": model.RecommendNeedsReview,
		"processed_at":   &now,
		"processing_log": encodeEvents(r.events),
	}); err != nil {
		r.log.WithError(err).Error("failed to persist terminal status")
	}
	r.broadcast(status, model.RecommendNeedsReview)
	r.log.WithField("status", status).Info("invoice parked for review")
}

func (r *run) fail(cause error) {
	r.events = append(r.events, model.NewProcessingEvent("ERROR", fmt.Sprintf("Error processing invoice: %v", cause), nil))
	if err := r.p.invoices.UpdateFields(r.ctx, r.invoiceID, map[string]any{
		"status":         model.StatusFailed,
		"processing_log": encodeEvents(r.events),
	}); err != nil {
		r.log.WithError(err).Error("failed to persist FAILED status")
	}
	r.broadcast(model.StatusFailed, "")
	r.log.WithError(cause).Error("invoice processing failed")
}

func (r *run) broadcast(status, recommendation string) {
	if r.p.hub != nil {
		r.p.hub.BroadcastInvoiceStatus(r.invoiceID.String(), status, recommendation)
	}
}

// --- helpers ---

// stringField pulls a field from the extraction map, trying a direct key first
// and then one level of nested category sub-maps.
func stringField(fields map[string]any, name string) string {
	if v, ok := fields[name]; ok {
		return toString(v)
	}
	for _, v := range fields {
		if sub, ok := v.(map[string]any); ok {
			if nested, ok := sub[name]; ok {
				return toString(nested)
			}
		}
	}
	return ""
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func decodeEvents(raw string) []model.ProcessingEvent {
	if raw == "" {
		return nil
	}
	var events []model.ProcessingEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil
	}
	return events
}

func encodeEvents(events []model.ProcessingEvent) string {
	b, err := json.Marshal(events)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func poData(po *model.PurchaseOrder) map[string]any {
	return map[string]any{
		"po_number":     po.PONumber,
		"vendor_id":     po.VendorID,
		"vendor_name":   po.VendorName,
		"total":         po.Total.InexactFloat64(),
		"currency":      po.Currency,
		"line_items":    decodeList(po.LineItems),
		"payment_terms": po.PaymentTerms,
	}
}

func grnData(grn *model.GoodsReceipt) map[string]any {
	return map[string]any{
		"grn_number":     grn.GRNNumber,
		"po_number":      grn.PONumber,
		"delivery_date":  grn.DeliveryDate,
		"received_items": decodeList(grn.ReceivedItems),
	}
}

func vendorData(vendor *model.Vendor) map[string]any {
	return map[string]any{
		"vendor_id":       vendor.VendorID,
		"vendor_name":     vendor.VendorName,
		"bank_account":    vendor.BankAccount,
		"routing_number":  vendor.RoutingNumber,
		"bank_name":       vendor.BankName,
		"invoice_history": decodeList(vendor.InvoiceHistory),
		"risk_profile":    decodeMap(vendor.RiskProfile),
	}
}

// decodeList tolerates malformed stored JSON by returning an empty list.
func decodeList(raw string) []any {
	if raw == "" {
		return []any{}
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []any{}
	}
	return items
}

// decodeMap tolerates malformed stored JSON by returning an empty map.
func decodeMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}
