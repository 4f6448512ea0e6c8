package extraction

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"invoiceflow/internal/llm"
	"invoiceflow/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	extractRetries    = 3
	extractRetryDelay = 2 * time.Second
)

// Adapter runs the extraction chain: document service (retried) → LLM over the
// parsed text → local regex scrape. It never returns an error; when every path
// fails the caller gets an empty result with quality 0.
type Adapter struct {
	docs       DocumentClient
	completer  llm.Completer
	log        *logrus.Logger
	retryDelay time.Duration
}

func NewAdapter(docs DocumentClient, completer llm.Completer, log *logrus.Logger) *Adapter {
	return &Adapter{docs: docs, completer: completer, log: log, retryDelay: extractRetryDelay}
}

// Extract turns raw document bytes into a scored, normalized field map.
func (a *Adapter) Extract(ctx context.Context, document []byte, filename string) model.ExtractionResult {
	start := time.Now()

	markdown, source := a.parse(ctx, document, filename)
	fields, confidence := a.extractFields(ctx, markdown, &source)

	normalized := normalizeFields(fields)
	quality := QualityScore(normalized)

	elapsed := math.Round(time.Since(start).Seconds()*100) / 100
	a.log.WithFields(logrus.Fields{
		"source":      source,
		"field_count": len(normalized),
		"quality":     quality,
		"seconds":     elapsed,
	}).Info("extraction complete")

	preview := markdown
	if len(preview) > 1000 {
		preview = preview[:1000]
	}
	return model.ExtractionResult{
		Fields:                normalized,
		ConfidenceScores:      confidence,
		QualityScore:          quality,
		ExtractionTimeSeconds: elapsed,
		FieldCount:            len(normalized),
		Source:                source,
		Markdown:              preview,
	}
}

func (a *Adapter) parse(ctx context.Context, document []byte, filename string) (markdown, source string) {
	if a.docs != nil {
		md, err := a.docs.Parse(ctx, document, filename)
		if err == nil && md != "" {
			return md, "docext"
		}
		if err != nil {
			a.log.WithError(err).Warn("document parse failed, using local text")
		}
	}
	return plainText(document), "local"
}

func (a *Adapter) extractFields(ctx context.Context, markdown string, source *string) (map[string]any, map[string]float64) {
	if a.docs != nil && *source == "docext" {
		for attempt := 1; attempt <= extractRetries; attempt++ {
			fields, confidence, err := a.docs.Extract(ctx, markdown)
			if err == nil {
				return fields, confidence
			}
			a.log.WithError(err).WithField("attempt", attempt).Warn("document extract failed")
			if attempt < extractRetries {
				select {
				case <-time.After(a.retryDelay):
				case <-ctx.Done():
				}
				if ctx.Err() != nil {
					break
				}
			}
		}
	}

	if fields, err := a.llmExtract(ctx, markdown); err == nil {
		*source = "llm"
		return fields, nil
	} else {
		a.log.WithError(err).Warn("llm extraction failed, using regex fallback")
	}

	*source = "regex"
	return regexExtract(markdown), nil
}

const llmExtractSystem = "You extract structured data from invoice documents. Respond only with valid JSON."

func (a *Adapter) llmExtract(ctx context.Context, markdown string) (map[string]any, error) {
	if len(markdown) > 5000 {
		markdown = markdown[:5000]
	}

	var b strings.Builder
	b.WriteString("Extract ALL invoice data from this document as a FLAT JSON object with these fields (no nested categories, line_items as an array of objects):\n\n")
	b.WriteString(strings.Join(invoiceFieldNames, ", "))
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(markdown)
	b.WriteString("\n\nReturn ONLY valid JSON. Use null for missing fields.")

	text, err := a.completer.Complete(ctx, llmExtractSystem, b.String())
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
