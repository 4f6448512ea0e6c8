package extraction

import (
	"regexp"
	"strings"
)

var fallbackPatterns = map[string]*regexp.Regexp{
	"invoice_number": regexp.MustCompile(`(?im)Invoice\s*#?\s*:?\s*([A-Z0-9-]+)`),
	"po_number":      regexp.MustCompile(`(?im)PO\s*#?\s*:?\s*([A-Z0-9-]+)`),
	"total":          regexp.MustCompile(`(?im)Total\s*:?\s*\$?\s*([\d,]+\.?\d*)`),
	"vendor_name":    regexp.MustCompile(`(?m)^([A-Z][a-zA-Z &]+)`),
}

// regexExtract is the last-resort extraction path: a best-effort scrape of the
// few fields the pipeline cannot proceed without.
func regexExtract(text string) map[string]any {
	fields := make(map[string]any)
	for name, pattern := range fallbackPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value := strings.TrimSpace(match[1])
		if name == "total" {
			fields[name] = coerceFloat(value)
			continue
		}
		fields[name] = value
	}
	return fields
}

// plainText scrapes printable text runs out of raw document bytes so the regex
// path has something to work with when the parse service is unreachable.
func plainText(document []byte) string {
	var b strings.Builder
	run := 0
	for _, c := range document {
		if c == '\n' || c == '\t' || (c >= 0x20 && c < 0x7f) {
			b.WriteByte(c)
			run++
			continue
		}
		if run > 0 && run < 4 {
			// Short runs between binary bytes are almost never real words.
			s := b.String()
			b.Reset()
			b.WriteString(s[:len(s)-run])
		} else if run > 0 {
			b.WriteByte('\n')
		}
		run = 0
	}
	return b.String()
}
