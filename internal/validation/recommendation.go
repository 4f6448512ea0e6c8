package validation

import (
	"fmt"
	"strings"

	"invoiceflow/internal/model"
)

// Recommend derives the final disposition from the two agent verdicts and the
// extraction quality. Pure and order-sensitive: the quality gate is checked
// before any risk or match signal, so a low-confidence extraction always lands
// in review regardless of how clean the match looks.
func Recommend(extractionQuality float64, overallMatchScore, riskScore int) string {
	if extractionQuality < 70 {
		return model.RecommendNeedsReview
	}
	if riskScore >= 70 {
		return model.RecommendReject
	}
	if overallMatchScore < 60 {
		return model.RecommendReject
	}
	if riskScore >= 40 || overallMatchScore < 85 {
		return model.RecommendNeedsReview
	}
	return model.RecommendApprove
}

// BuildReasoning composes the human-readable justification from the scores and
// the ordered insight log.
func BuildReasoning(matching model.MatchingResult, fraud model.FraudResult, insights []model.ProcessingEvent, extractionQuality float64) string {
	parts := []string{
		fmt.Sprintf("Extraction quality: %.1f%%", extractionQuality),
		fmt.Sprintf("Match score: %d/100 (%s)", matching.OverallScore, statusOrUnknown(matching.OverallStatus)),
		fmt.Sprintf("Fraud risk: %d/100 (%s)", fraud.RiskScore, statusOrUnknown(fraud.RiskLevel)),
	}
	if len(insights) > 0 {
		parts = append(parts, "Agent insights:")
		for _, insight := range insights {
			parts = append(parts, fmt.Sprintf("- [%s] %s", insight.Stage, insight.Message))
		}
	}
	return strings.Join(parts, "\n")
}

// BuildSummary renders the short badge line shown next to an invoice.
func BuildSummary(matching model.MatchingResult, fraud model.FraudResult, recommendation string) string {
	return fmt.Sprintf("%s: Match %d / Risk %d", recommendation, matching.OverallScore, fraud.RiskScore)
}

func statusOrUnknown(s string) string {
	if s == "" {
		return model.MatchStatusUnknown
	}
	return s
}
