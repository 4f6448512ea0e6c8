package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"invoiceflow/internal/model"
	"invoiceflow/internal/pipeline"
	"invoiceflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type UploadResponse struct {
	InvoiceID string `json:"invoice_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type InvoiceDetail struct {
	InvoiceID      string                  `json:"invoice_id"`
	InvoiceNumber  string                  `json:"invoice_number"`
	VendorID       string                  `json:"vendor_id"`
	PONumber       string                  `json:"po_number"`
	GRNNumber      string                  `json:"grn_number"`
	Status         string                  `json:"status"`
	Recommendation string                  `json:"recommendation"`
	ExtractedData  *model.ExtractionResult `json:"extracted_data"`
	MatchingResult *model.MatchingResult   `json:"matching_result"`
	FraudResult    *model.FraudResult      `json:"fraud_result"`
	DecisionNotes  string                  `json:"decision_notes,omitempty"`
	UploadedAt     string                  `json:"uploaded_at"`
	ProcessedAt    *string                 `json:"processed_at"`
	ProcessingLog  []model.ProcessingEvent `json:"processing_log"`
}

type InvoiceListItem struct {
	InvoiceID      string  `json:"invoice_id"`
	InvoiceNumber  string  `json:"invoice_number"`
	VendorID       string  `json:"vendor_id"`
	Status         string  `json:"status"`
	Recommendation string  `json:"recommendation"`
	RiskScore      *int    `json:"risk_score"`
	UploadedAt     string  `json:"uploaded_at"`
	ProcessedAt    *string `json:"processed_at"`
}

type DecisionRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT NEEDS_REVIEW"`
	Notes  string `json:"notes"`
}

type Stats struct {
	TotalInvoices int64 `json:"total_invoices"`
	Completed     int64 `json:"completed"`
	Processing    int64 `json:"processing"`
	Failed        int64 `json:"failed"`
}

// --- Interface ---

type InvoiceService interface {
	Upload(ctx context.Context, filename string, document []byte) (UploadResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceDetail, error)
	ListInvoices(ctx context.Context, page, limit int) ([]InvoiceListItem, int64, error)
	DeleteInvoice(ctx context.Context, id string) error
	Decide(ctx context.Context, id, userID string, req DecisionRequest) (InvoiceDetail, error)
	GetStats(ctx context.Context) (Stats, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	processor   *pipeline.Processor
	log         *logrus.Logger
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository, processor *pipeline.Processor, log *logrus.Logger) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, processor: processor, log: log}
}

// --- Implementation ---

var allowedExtensions = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true}

// Upload validates the payload, creates the invoice record in PROCESSING with
// its seeded UPLOAD event, and launches the pipeline in the background. The
// caller gets the id immediately; processing takes ~45s end to end.
func (s *invoiceService) Upload(ctx context.Context, filename string, document []byte) (UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return UploadResponse{}, fmt.Errorf("only PDF, PNG, JPEG files are supported, got: %q", ext)
	}
	if len(document) == 0 {
		return UploadResponse{}, fmt.Errorf("empty file")
	}

	initialLog, _ := json.Marshal([]model.ProcessingEvent{
		model.NewProcessingEvent("UPLOAD", "Invoice uploaded and queued for extraction.", nil),
	})

	invoice := model.Invoice{
		ID:            uuid.New(),
		Filename:      filename,
		Status:        model.StatusProcessing,
		ProcessingLog: string(initialLog),
	}
	if err := s.invoiceRepo.Create(ctx, &invoice); err != nil {
		return UploadResponse{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	// Detach from the request context: the pipeline outlives the request.
	go s.processor.Process(context.Background(), invoice.ID, document, filename)

	return UploadResponse{
		InvoiceID: invoice.ID.String(),
		Status:    model.StatusProcessing,
		Message:   "Invoice uploaded successfully. Processing in background.",
	}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceDetail, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceDetail{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	return toDetail(invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, page, limit int) ([]InvoiceListItem, int64, error) {
	offset := (page - 1) * limit
	invoices, total, err := s.invoiceRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items := make([]InvoiceListItem, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		item := InvoiceListItem{
			InvoiceID:      inv.ID.String(),
			InvoiceNumber:  inv.InvoiceNumber,
			VendorID:       inv.VendorID,
			Status:         inv.Status,
			Recommendation: inv.Recommendation,
			UploadedAt:     inv.UploadedAt.Format(time.RFC3339),
			ProcessedAt:    formatTimePtr(inv.ProcessedAt),
		}
		if fraud := decodeFraud(inv.FraudResult); fraud != nil {
			item.RiskScore = &fraud.RiskScore
		}
		items = append(items, item)
	}
	return items, total, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid invoice id: %w", err)
	}
	if _, err := s.invoiceRepo.FindByID(ctx, invoiceID); err != nil {
		return err
	}
	return s.invoiceRepo.Delete(ctx, invoiceID)
}

// Decide records the reviewer's final disposition for a terminal invoice.
func (s *invoiceService) Decide(ctx context.Context, id, userID string, req DecisionRequest) (InvoiceDetail, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceDetail{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	if !model.IsTerminalStatus(invoice.Status) {
		return InvoiceDetail{}, fmt.Errorf("invoice is still processing (status %s)", invoice.Status)
	}

	fields := map[string]any{
		"recommendation": req.Action,
		"decision_notes": req.Notes,
		"decided_at":     time.Now().UTC(),
	}
	if reviewerID, parseErr := uuid.Parse(userID); parseErr == nil {
		fields["decided_by"] = reviewerID
	}
	if err := s.invoiceRepo.UpdateFields(ctx, invoiceID, fields); err != nil {
		return InvoiceDetail{}, fmt.Errorf("failed to record decision: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id": id,
		"action":     req.Action,
	}).Info("reviewer decision recorded")

	updated, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	return toDetail(updated), nil
}

func (s *invoiceService) GetStats(ctx context.Context) (Stats, error) {
	completed, err := s.invoiceRepo.CountByStatuses(ctx, []string{model.StatusCompleted})
	if err != nil {
		return Stats{}, err
	}
	processing, err := s.invoiceRepo.CountByStatuses(ctx, []string{
		model.StatusProcessing, model.StatusExtracting, model.StatusMatching, model.StatusFraudCheck,
	})
	if err != nil {
		return Stats{}, err
	}
	failed, err := s.invoiceRepo.CountByStatuses(ctx, []string{
		model.StatusFailed, model.StatusNoPONumber, model.StatusNoPOFound,
		model.StatusNoGRNFound, model.StatusNoVendorFound,
	})
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalInvoices: completed + processing + failed,
		Completed:     completed,
		Processing:    processing,
		Failed:        failed,
	}, nil
}

// --- helpers ---

// toDetail decodes the serialized payload columns, treating malformed or
// missing JSON as absent rather than failing the read.
func toDetail(inv *model.Invoice) InvoiceDetail {
	detail := InvoiceDetail{
		InvoiceID:      inv.ID.String(),
		InvoiceNumber:  inv.InvoiceNumber,
		VendorID:       inv.VendorID,
		PONumber:       inv.PONumber,
		GRNNumber:      inv.GRNNumber,
		Status:         inv.Status,
		Recommendation: inv.Recommendation,
		DecisionNotes:  inv.DecisionNotes,
		UploadedAt:     inv.UploadedAt.Format(time.RFC3339),
		ProcessedAt:    formatTimePtr(inv.ProcessedAt),
		ProcessingLog:  []model.ProcessingEvent{},
	}

	if inv.ExtractedData != "" {
		var extraction model.ExtractionResult
		if err := json.Unmarshal([]byte(inv.ExtractedData), &extraction); err == nil {
			detail.ExtractedData = &extraction
		}
	}
	if inv.MatchingResult != "" {
		var matching model.MatchingResult
		if err := json.Unmarshal([]byte(inv.MatchingResult), &matching); err == nil {
			detail.MatchingResult = &matching
		}
	}
	detail.FraudResult = decodeFraud(inv.FraudResult)
	if inv.ProcessingLog != "" {
		var events []model.ProcessingEvent
		if err := json.Unmarshal([]byte(inv.ProcessingLog), &events); err == nil {
			detail.ProcessingLog = events
		}
	}
	return detail
}

func decodeFraud(raw string) *model.FraudResult {
	if raw == "" {
		return nil
	}
	var fraud model.FraudResult
	if err := json.Unmarshal([]byte(raw), &fraud); err != nil {
		return nil
	}
	return &fraud
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
