package validation

import (
	"context"

	"invoiceflow/internal/model"
)

// Matcher is the matching step of the validation flow.
type Matcher interface {
	Run(ctx context.Context, extraction, po, grn map[string]any) (model.MatchingResult, []model.ProcessingEvent)
}

// FraudAssessor is the fraud step; it consumes the matching verdict, so the
// two steps are strictly ordered.
type FraudAssessor interface {
	Run(ctx context.Context, extraction, vendor map[string]any, matching model.MatchingResult, extractionQuality float64) (model.FraudResult, []model.ProcessingEvent)
}

// Orchestrator runs the fixed two-step validation flow: matching, then fraud,
// then the deterministic recommendation. The flow never branches or cycles, so
// it is plain function composition rather than a workflow engine.
type Orchestrator struct {
	matcher Matcher
	fraud   FraudAssessor
}

func NewOrchestrator(matcher Matcher, fraud FraudAssessor) *Orchestrator {
	return &Orchestrator{matcher: matcher, fraud: fraud}
}

// Validate produces the complete validation verdict for one invoice. Insight
// events are concatenated in stage order: matching before fraud.
func (o *Orchestrator) Validate(ctx context.Context, extraction, po, grn, vendor map[string]any, extractionQuality float64) model.ValidationResult {
	matching, matchInsights := o.matcher.Run(ctx, extraction, po, grn)
	fraud, fraudInsights := o.fraud.Run(ctx, extraction, vendor, matching, extractionQuality)

	insights := make([]model.ProcessingEvent, 0, len(matchInsights)+len(fraudInsights))
	insights = append(insights, matchInsights...)
	insights = append(insights, fraudInsights...)

	recommendation := Recommend(extractionQuality, matching.OverallScore, fraud.RiskScore)

	return model.ValidationResult{
		Matching:       matching,
		Fraud:          fraud,
		Recommendation: recommendation,
		Reasoning:      BuildReasoning(matching, fraud, insights, extractionQuality),
		Summary:        BuildSummary(matching, fraud, recommendation),
		Insights:       insights,
	}
}
