package ledger

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Fingerprint derives the deduplication key for a transaction. It is a pure
// function of the four identity fields:
//
//	sha256(date|amount|lower(trim(description))|accountID)
//
// The date canonicalizes to YYYY-MM-DD and the amount to its shortest
// decimal form, so "450.00" and "450" fingerprint identically. Description
// differences in case or surrounding whitespace do not change the result.
func Fingerprint(date civil.Date, amount decimal.Decimal, description, accountID string) string {
	payload := fmt.Sprintf("%s|%s|%s|%s",
		date.String(),
		amount.String(),
		strings.ToLower(strings.TrimSpace(description)),
		accountID,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(payload)))
}

// ComputeFingerprint fills t.Fingerprint from the transaction's own fields.
func (t *Transaction) ComputeFingerprint() string {
	t.Fingerprint = Fingerprint(t.Date, t.Amount, t.Description, t.AccountID)
	return t.Fingerprint
}
