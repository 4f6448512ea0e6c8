package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"invoiceflow/internal/llm"
	"invoiceflow/internal/model"

	"github.com/sirupsen/logrus"
)

// StageFraudAgent tags insight events emitted by the fraud agent.
const StageFraudAgent = "FRAUD_AGENT"

// FraudAgent evaluates vendor-risk signals (bank-detail change, duplicate
// invoice, amount anomaly, velocity) with the prior matching verdict as input.
// Like MatchAgent it absorbs every failure into a fixed fallback result.
type FraudAgent struct {
	completer llm.Completer
	log       *logrus.Logger
}

func NewFraudAgent(completer llm.Completer, log *logrus.Logger) *FraudAgent {
	return &FraudAgent{completer: completer, log: log}
}

type fraudEnvelope struct {
	Fraud    model.FraudResult `json:"fraud"`
	Insights []string          `json:"insights"`
}

const fraudSystemPrompt = "You are FraudAgent. Evaluate fraud risk using invoice data, vendor history, and prior matching results. Respond only with valid JSON."

const fraudResponseSchema = `{
  "fraud": {
    "risk_score": <0-100>,
    "risk_level": "<LOW|MEDIUM|HIGH|CRITICAL>",
    "signals": [
      {
        "type": "<BANK_CHANGE|DUPLICATE|AMOUNT_ANOMALY|VELOCITY|OTHER>",
        "severity": "<LOW|MEDIUM|HIGH>",
        "description": "What you observed",
        "risk_points": <0-40>
      }
    ],
    "checks_performed": {
      "bank_change": true,
      "duplicate": true,
      "amount_anomaly": true,
      "velocity": true
    }
  },
  "insights": ["short bullet describing each fraud concern"]
}`

// Run assesses the invoice for fraud risk.
func (a *FraudAgent) Run(ctx context.Context, extraction, vendor map[string]any, matching model.MatchingResult, extractionQuality float64) (model.FraudResult, []model.ProcessingEvent) {
	prompt := fmt.Sprintf(
		"Respond ONLY with JSON:\n%s\n\nInvoice Data:\n%s\n\nVendor History:\n%s\n\nMatching Summary:\n%s\n\nExtraction Quality: %.1f",
		fraudResponseSchema, mustIndentJSON(extraction), mustIndentJSON(vendor), mustIndentJSON(matching), extractionQuality,
	)

	text, err := a.completer.Complete(ctx, fraudSystemPrompt, prompt)
	if err != nil {
		return a.fallback(err)
	}

	var envelope fraudEnvelope
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &envelope); err != nil {
		return a.fallback(err)
	}

	fraud := envelope.Fraud
	// checks_performed holds exactly the four known checks. Missing keys
	// default to true (considered, not skipped); unknown keys are dropped.
	checks := make(map[string]bool, len(model.FraudCheckNames))
	for _, name := range model.FraudCheckNames {
		if v, ok := fraud.ChecksPerformed[name]; ok {
			checks[name] = v
		} else {
			checks[name] = true
		}
	}
	fraud.ChecksPerformed = checks
	if fraud.Signals == nil {
		fraud.Signals = []model.FraudSignal{}
	}
	if !validRiskLevel(fraud.RiskLevel) {
		fraud.RiskLevel = model.RiskLevelForScore(fraud.RiskScore)
	}

	return fraud, wrapInsights(StageFraudAgent, envelope.Insights)
}

func (a *FraudAgent) fallback(err error) (model.FraudResult, []model.ProcessingEvent) {
	a.log.WithError(err).Warn("fraud agent fallback")
	result := model.FraudResult{
		RiskScore: 50,
		RiskLevel: model.RiskMedium,
		Signals: []model.FraudSignal{{
			Type:        model.SignalSystem,
			Severity:    model.RiskMedium,
			Description: fmt.Sprintf("Agent error: %v", err),
			RiskPoints:  20,
		}},
		ChecksPerformed: map[string]bool{
			"bank_change":    false,
			"duplicate":      false,
			"amount_anomaly": false,
			"velocity":       false,
		},
	}
	insight := fmt.Sprintf("Fraud agent fallback due to error: %v", err)
	return result, wrapInsights(StageFraudAgent, []string{insight})
}

func validRiskLevel(level string) bool {
	switch level {
	case model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskCritical:
		return true
	}
	return false
}
