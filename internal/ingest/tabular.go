package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

// ExtractTabular parses delimited statement text into candidates. The first
// non-blank line is probed as a header; when it maps the required roles the
// remaining lines are data, otherwise every line is data and the positional
// layout applies. Rows that cannot produce a dated, non-zero, described
// transaction are counted and dropped, never fatal.
func ExtractTabular(text string) ExtractResult {
	var result ExtractResult

	lines := statementLines(text)
	if len(lines) == 0 {
		return result
	}

	cols := positionalColumns()
	start := 0
	if header := mapColumns(splitStatementLine(lines[0])); header.usable() {
		cols = header
		start = 1
	}

	tempID := 1
	for _, line := range lines[start:] {
		cand, ok := candidateFromRow(splitStatementLine(line), cols)
		if !ok {
			result.Skipped++
			continue
		}
		cand.TempID = tempID
		tempID++
		result.Candidates = append(result.Candidates, cand)
	}
	return result
}

// statementLines splits raw text into trimmed, non-blank lines.
func statementLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func candidateFromRow(fields []string, cols columnMap) (Candidate, bool) {
	if len(fields) < 3 {
		return Candidate{}, false
	}
	if cols.date >= len(fields) || cols.amount >= len(fields) || cols.description >= len(fields) {
		return Candidate{}, false
	}

	date, ok := normalizeDate(fields[cols.date])
	if !ok {
		return Candidate{}, false
	}
	amount, ok := parseAmount(fields[cols.amount])
	if !ok || amount.IsZero() {
		return Candidate{}, false
	}

	typeValue := ""
	if cols.txType >= 0 && cols.txType < len(fields) {
		typeValue = fields[cols.txType]
	}

	cand := Candidate{
		Date:        date,
		Amount:      amount.Abs(),
		Direction:   resolveDirection(typeValue, amount),
		Description: fields[cols.description],
	}
	if cols.balance >= 0 && cols.balance < len(fields) {
		if bal, ok := parseAmount(fields[cols.balance]); ok {
			cand.Balance.Decimal = bal
			cand.Balance.Valid = true
		}
	}
	return cand, true
}

// Direction keywords, substring-matched case-insensitively. Expense terms
// are checked first so "debit" never falls through to the sign rule.
var (
	expenseTypeKeywords = []string{"debit", "dr", "withdraw"}
	incomeTypeKeywords  = []string{"credit", "cr", "deposit"}
)

// resolveDirection decides income or expense from the type cell when one
// maps, falling back to the sign of the parsed amount.
func resolveDirection(typeValue string, signed decimal.Decimal) ledger.Direction {
	v := strings.ToLower(strings.TrimSpace(typeValue))
	if v != "" {
		for _, kw := range expenseTypeKeywords {
			if strings.Contains(v, kw) {
				return ledger.DirectionExpense
			}
		}
		for _, kw := range incomeTypeKeywords {
			if strings.Contains(v, kw) {
				return ledger.DirectionIncome
			}
		}
	}
	if signed.IsNegative() {
		return ledger.DirectionExpense
	}
	return ledger.DirectionIncome
}
