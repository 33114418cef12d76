package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

// splitStatementLine splits one statement line on commas. Double quotes
// toggle a protected region where commas are literal; the quotes themselves
// are dropped and every field is trimmed. An unclosed quote protects through
// end of line. Bank exports are too loose for a strict CSV reader, which
// would reject half of them outright.
func splitStatementLine(line string) []string {
	fields := make([]string, 0, 8)
	var b strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(b.String()))
	return fields
}

// parseAmount pulls a decimal out of a raw cell by stripping currency
// symbols, thousands separators and stray text, keeping only digits, signs
// and the decimal point. ok is false when nothing numeric remains.
func parseAmount(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimPrefix(b.String(), "+")
	if s == "" || s == "-" || s == "." {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
