package validation

import (
	"strings"
	"testing"

	"invoiceflow/internal/model"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		quality float64
		match   int
		risk    int
		want    string
	}{
		{"quality gate overrides perfect scores", 69.9, 100, 0, model.RecommendNeedsReview},
		{"quality exactly at threshold passes gate", 70, 85, 39, model.RecommendApprove},
		{"high risk rejects", 70, 85, 70, model.RecommendReject},
		{"critical risk rejects despite perfect match", 100, 100, 95, model.RecommendReject},
		{"low match rejects", 70, 59, 0, model.RecommendReject},
		{"risk checked before match", 80, 10, 90, model.RecommendReject},
		{"moderate risk needs review", 70, 90, 40, model.RecommendNeedsReview},
		{"moderate match needs review", 70, 84, 0, model.RecommendNeedsReview},
		{"clean invoice approves", 95, 100, 0, model.RecommendApprove},
		{"boundary match 60 risk 39", 70, 60, 39, model.RecommendNeedsReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommend(tt.quality, tt.match, tt.risk); got != tt.want {
				t.Errorf("Recommend(%v, %d, %d) = %q, want %q", tt.quality, tt.match, tt.risk, got, tt.want)
			}
		})
	}
}

func TestRecommendDeterministic(t *testing.T) {
	first := Recommend(88, 77, 33)
	for i := 0; i < 100; i++ {
		if got := Recommend(88, 77, 33); got != first {
			t.Fatalf("Recommend is not deterministic: %q then %q", first, got)
		}
	}
}

func TestBuildSummary(t *testing.T) {
	matching := model.MatchingResult{OverallScore: 91}
	fraud := model.FraudResult{RiskScore: 12}

	got := BuildSummary(matching, fraud, model.RecommendApprove)

	if got != "APPROVE: Match 91 / Risk 12" {
		t.Errorf("BuildSummary() = %q", got)
	}
}

func TestBuildReasoning(t *testing.T) {
	matching := model.MatchingResult{OverallScore: 91, OverallStatus: model.MatchStatusMatch}
	fraud := model.FraudResult{RiskScore: 12, RiskLevel: model.RiskLow}
	insights := []model.ProcessingEvent{
		model.NewProcessingEvent("MATCH_AGENT", "totals agree", nil),
		model.NewProcessingEvent("FRAUD_AGENT", "no anomalies", nil),
	}

	got := BuildReasoning(matching, fraud, insights, 92.5)

	for _, want := range []string{
		"Extraction quality: 92.5%",
		"Match score: 91/100 (MATCH)",
		"Fraud risk: 12/100 (LOW)",
		"Agent insights:",
		"- [MATCH_AGENT] totals agree",
		"- [FRAUD_AGENT] no anomalies",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("reasoning missing %q:\n%s", want, got)
		}
	}
}

func TestBuildReasoningEmptyStatuses(t *testing.T) {
	got := BuildReasoning(model.MatchingResult{}, model.FraudResult{}, nil, 0)

	if !strings.Contains(got, "(UNKNOWN)") {
		t.Errorf("empty statuses should render as UNKNOWN:\n%s", got)
	}
	if strings.Contains(got, "Agent insights:") {
		t.Error("no insights header expected when insight list is empty")
	}
}
