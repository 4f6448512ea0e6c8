package agents

import (
	"encoding/json"

	"invoiceflow/internal/model"
)

// wrapInsights turns agent insight strings into stage-tagged audit events.
func wrapInsights(stage string, insights []string) []model.ProcessingEvent {
	events := make([]model.ProcessingEvent, 0, len(insights))
	for _, insight := range insights {
		events = append(events, model.NewProcessingEvent(stage, insight, nil))
	}
	return events
}

// mustIndentJSON renders a prompt input deterministically; Go maps marshal
// with sorted keys, so the same input always produces the same prompt.
func mustIndentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
