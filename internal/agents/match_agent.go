package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"invoiceflow/internal/llm"
	"invoiceflow/internal/model"

	"github.com/sirupsen/logrus"
)

// StageMatchAgent tags insight events emitted by the matching agent.
const StageMatchAgent = "MATCH_AGENT"

// MatchAgent performs 3-way matching (invoice ↔ PO ↔ GRN) by delegating the
// comparison judgment to the generative capability. Its own responsibility is
// deterministic input assembly and a well-defined fallback: the pipeline always
// receives a MatchingResult, never an error.
type MatchAgent struct {
	completer llm.Completer
	log       *logrus.Logger
}

func NewMatchAgent(completer llm.Completer, log *logrus.Logger) *MatchAgent {
	return &MatchAgent{completer: completer, log: log}
}

type matchEnvelope struct {
	Matching model.MatchingResult `json:"matching"`
	Insights []string             `json:"insights"`
}

const matchSystemPrompt = "You are MatchAgent, an expert AP auditor. Compare invoice fields with purchase order and goods receipt data. Respond only with valid JSON."

const matchResponseSchema = `{
  "matching": {
    "invoice_po_score": <0-100>,
    "invoice_po_status": "<MATCH|PARTIAL|MISMATCH>",
    "invoice_po_mismatches": ["list issues"],
    "invoice_grn_score": <0-100>,
    "invoice_grn_status": "<MATCH|PARTIAL|MISMATCH>",
    "invoice_grn_mismatches": ["list issues"],
    "overall_status": "<MATCH|PARTIAL|MISMATCH>",
    "overall_score": <0-100>
  },
  "insights": ["short bullet explaining your findings"]
}`

// Run compares the extracted invoice fields against the PO and GRN records.
func (a *MatchAgent) Run(ctx context.Context, extraction, po, grn map[string]any) (model.MatchingResult, []model.ProcessingEvent) {
	prompt := fmt.Sprintf(
		"Return ONLY JSON with this schema:\n%s\n\nInvoice Data:\n%s\n\nPurchase Order:\n%s\n\nGoods Receipt:\n%s",
		matchResponseSchema, mustIndentJSON(extraction), mustIndentJSON(po), mustIndentJSON(grn),
	)

	text, err := a.completer.Complete(ctx, matchSystemPrompt, prompt)
	if err != nil {
		return a.fallback(err)
	}

	var envelope matchEnvelope
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &envelope); err != nil {
		return a.fallback(err)
	}

	matching := envelope.Matching
	if matching.InvoicePOStatus == "" {
		matching.InvoicePOStatus = model.MatchStatusUnknown
	}
	if matching.InvoiceGRNStatus == "" {
		matching.InvoiceGRNStatus = model.MatchStatusUnknown
	}
	if matching.OverallStatus == "" {
		matching.OverallStatus = model.MatchStatusUnknown
	}
	if matching.InvoicePOMismatches == nil {
		matching.InvoicePOMismatches = []string{}
	}
	if matching.InvoiceGRNMismatch == nil {
		matching.InvoiceGRNMismatch = []string{}
	}

	return matching, wrapInsights(StageMatchAgent, envelope.Insights)
}

func (a *MatchAgent) fallback(err error) (model.MatchingResult, []model.ProcessingEvent) {
	a.log.WithError(err).Warn("match agent fallback")
	result := model.MatchingResult{
		InvoicePOStatus:     model.MatchStatusUnknown,
		InvoicePOMismatches: []string{},
		InvoiceGRNStatus:    model.MatchStatusUnknown,
		InvoiceGRNMismatch:  []string{},
		OverallStatus:       model.MatchStatusUnknown,
	}
	insight := fmt.Sprintf("Matching agent fallback due to error: %v", err)
	return result, wrapInsights(StageMatchAgent, []string{insight})
}
