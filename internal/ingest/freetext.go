package ingest

import (
	"regexp"
	"strings"
)

// Free-text extraction targets statement lines that survived PDF text
// recovery, where column boundaries are gone. Three line shapes cover the
// layouts banks actually print; they are tried in order and the first one
// that yields a valid date, amount and description wins, so extraction is
// deterministic for lines matching several shapes.

const (
	numberExpr      = `[-+]?[\d,]+(?:\.\d+)?`
	numericDateExpr = `\d{1,4}[-/]\d{1,2}[-/]\d{2,4}`
	namedDateExpr   = `\d{1,2}[-/ ](?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?[-/ ]\d{2,4}`
)

type linePattern struct {
	re *regexp.Regexp
	// order maps capture groups to roles.
	order func(m []string) (dateToken, amountToken, description string)
}

var freeTextPatterns = []linePattern{
	// date  amount  description
	{
		re: regexp.MustCompile(`^(` + numericDateExpr + `)\s+(` + numberExpr + `)\s+(.+)$`),
		order: func(m []string) (string, string, string) {
			return m[1], m[2], m[3]
		},
	},
	// named-month date  amount  description
	{
		re: regexp.MustCompile(`(?i)^(` + namedDateExpr + `)\s+(` + numberExpr + `)\s+(.+)$`),
		order: func(m []string) (string, string, string) {
			return m[1], m[2], m[3]
		},
	},
	// description  amount  date
	{
		re: regexp.MustCompile(`^(.+?)\s+(` + numberExpr + `)\s+(` + numericDateExpr + `)$`),
		order: func(m []string) (string, string, string) {
			return m[3], m[2], m[1]
		},
	},
}

// ExtractFreeText parses unstructured statement text line by line. Lines
// matching no pattern, or matching one with an invalid date, zero amount or
// empty description, are counted and dropped.
func ExtractFreeText(text string) ExtractResult {
	var result ExtractResult

	tempID := 1
	for _, line := range statementLines(text) {
		cand, ok := candidateFromLine(line)
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

func candidateFromLine(line string) (Candidate, bool) {
	for _, p := range freeTextPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dateToken, amountToken, description := p.order(m)

		date, ok := normalizeDate(dateToken)
		if !ok {
			continue
		}
		amount, ok := parseAmount(amountToken)
		if !ok || amount.IsZero() {
			continue
		}
		description = strings.TrimSpace(description)
		if description == "" {
			continue
		}

		return Candidate{
			Date:        date,
			Amount:      amount.Abs(),
			Direction:   resolveDirection("", amount),
			Description: description,
		}, true
	}
	return Candidate{}, false
}
