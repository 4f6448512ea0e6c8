package extraction

import (
	"strconv"
	"strings"
	"unicode"
)

// amountFields are coerced to float64 during normalization; a value that does
// not coerce becomes 0.0 rather than poisoning downstream comparisons.
var amountFields = []string{"subtotal", "tax", "total", "amount_due", "shipping", "handling", "discount"}

// normalizeFields flattens one level of category sub-maps, drops nil values,
// coerces amount fields and tidies the vendor name. The result is the single
// canonical flat representation the rest of the pipeline works with.
func normalizeFields(raw map[string]any) map[string]any {
	flattened := make(map[string]any, len(raw))
	for key, value := range raw {
		if sub, ok := value.(map[string]any); ok && isCategoryKey(key) {
			for k, v := range sub {
				flattened[k] = v
			}
			continue
		}
		flattened[key] = value
	}

	normalized := make(map[string]any, len(flattened))
	for key, value := range flattened {
		if value == nil {
			continue
		}
		if key == "vendor_name" {
			if s, ok := value.(string); ok {
				value = titleCase(strings.TrimSpace(s))
			}
		}
		normalized[key] = value
	}

	for _, key := range amountFields {
		if v, ok := normalized[key]; ok {
			normalized[key] = coerceFloat(v)
		}
	}

	return normalized
}

// isCategoryKey matches the upper-case section headings some extractors emit
// (e.g. "VENDOR INFORMATION") whose children belong at the top level.
func isCategoryKey(key string) bool {
	hasLetter := false
	for _, r := range key {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		cleaned = strings.TrimPrefix(cleaned, "$")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
