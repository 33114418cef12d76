package ingest

import "strings"

// columnMap holds the resolved field positions for a tabular statement.
// Indexes are -1 when the column is absent.
type columnMap struct {
	date        int
	amount      int
	description int
	txType      int
	balance     int
}

// Keyword lists are in priority order: the first keyword that matches any
// header wins the role, searched left to right across headers.
var (
	dateKeywords        = []string{"date"}
	amountKeywords      = []string{"amount", "value", "debit", "credit"}
	descriptionKeywords = []string{"description", "particulars", "narration", "details"}
	typeKeywords        = []string{"type", "dr/cr", "cr/dr", "debit/credit"}
	balanceKeywords     = []string{"balance", "closing"}
)

// mapColumns resolves the header row into a columnMap by substring match
// against lower-cased header cells.
func mapColumns(headers []string) columnMap {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(h)
	}
	return columnMap{
		date:        findColumn(lowered, dateKeywords),
		amount:      findColumn(lowered, amountKeywords),
		description: findColumn(lowered, descriptionKeywords),
		txType:      findColumn(lowered, typeKeywords),
		balance:     findColumn(lowered, balanceKeywords),
	}
}

func findColumn(headers, keywords []string) int {
	for _, kw := range keywords {
		for i, h := range headers {
			if strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

// usable reports whether the map covers the three required roles. Statements
// without a recognizable header fall back to positional columns instead.
func (m columnMap) usable() bool {
	return m.date >= 0 && m.amount >= 0 && m.description >= 0
}

// positionalColumns is the layout assumed for headerless statements:
// date, amount, description in the first three columns.
func positionalColumns() columnMap {
	return columnMap{date: 0, amount: 1, description: 2, txType: -1, balance: -1}
}
