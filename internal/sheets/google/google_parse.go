package google

import (
	"fmt"
	"strings"

	ports "finbot/internal/sheets"
)

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

// isHeader reports whether a sheet's first row matches the mirror header,
// ignoring case and surrounding blanks.
func isHeader(row []any) bool {
	cols := toStrings(row)
	if len(cols) < len(ports.Header) {
		return false
	}
	for i, h := range ports.Header {
		if !strings.EqualFold(cols[i], h) {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
