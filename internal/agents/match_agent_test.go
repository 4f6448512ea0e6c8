package agents

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"invoiceflow/internal/model"

	"github.com/sirupsen/logrus"
)

type fakeCompleter struct {
	text       string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastPrompt = userPrompt
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMatchAgentSuccess(t *testing.T) {
	completer := &fakeCompleter{text: `{
		"matching": {
			"invoice_po_score": 95,
			"invoice_po_status": "MATCH",
			"invoice_po_mismatches": [],
			"invoice_grn_score": 88,
			"invoice_grn_status": "PARTIAL",
			"invoice_grn_mismatches": ["quantity differs on line 2"],
			"overall_status": "PARTIAL",
			"overall_score": 91
		},
		"insights": ["PO total matches invoice total exactly"]
	}`}
	agent := NewMatchAgent(completer, quietLogger())

	matching, insights := agent.Run(context.Background(),
		map[string]any{"invoice_number": "INV-1"},
		map[string]any{"po_number": "PO-1"},
		map[string]any{"grn_number": "GRN-1"},
	)

	if matching.OverallScore != 91 || matching.OverallStatus != model.MatchStatusPartial {
		t.Errorf("overall = %d/%s", matching.OverallScore, matching.OverallStatus)
	}
	if len(matching.InvoiceGRNMismatch) != 1 {
		t.Errorf("grn mismatches = %v", matching.InvoiceGRNMismatch)
	}
	if len(insights) != 1 || insights[0].Stage != StageMatchAgent {
		t.Errorf("insights = %+v", insights)
	}
	if !strings.Contains(completer.lastPrompt, `"invoice_number"`) {
		t.Error("prompt should carry the extraction fields")
	}
}

func TestMatchAgentDefaultsEmptyStatuses(t *testing.T) {
	completer := &fakeCompleter{text: `{"matching": {"overall_score": 50}, "insights": []}`}
	agent := NewMatchAgent(completer, quietLogger())

	matching, _ := agent.Run(context.Background(), nil, nil, nil)

	if matching.OverallStatus != model.MatchStatusUnknown {
		t.Errorf("overall_status = %q, want UNKNOWN", matching.OverallStatus)
	}
	if matching.InvoicePOStatus != model.MatchStatusUnknown || matching.InvoiceGRNStatus != model.MatchStatusUnknown {
		t.Error("per-pair statuses should default to UNKNOWN")
	}
	if matching.InvoicePOMismatches == nil || matching.InvoiceGRNMismatch == nil {
		t.Error("mismatch slices should never be nil")
	}
}

func TestMatchAgentFallback(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"completer error", &fakeCompleter{err: errors.New("timeout")}},
		{"malformed response", &fakeCompleter{text: "I could not compare these documents."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := NewMatchAgent(tt.completer, quietLogger())
			matching, insights := agent.Run(context.Background(), nil, nil, nil)

			if matching.OverallScore != 0 || matching.OverallStatus != model.MatchStatusUnknown {
				t.Errorf("fallback overall = %d/%s", matching.OverallScore, matching.OverallStatus)
			}
			if matching.InvoicePOMismatches == nil || matching.InvoiceGRNMismatch == nil {
				t.Error("fallback mismatch slices should be empty, not nil")
			}
			if len(insights) != 1 || insights[0].Stage != StageMatchAgent {
				t.Errorf("fallback insights = %+v", insights)
			}
		})
	}
}
