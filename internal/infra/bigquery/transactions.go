package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	OwnerID   string `bigquery:"owner_id"`   // REQUIRED
	AccountID string `bigquery:"account_id"` // REQUIRED

	UploadID bigquery.NullString `bigquery:"upload_id"` // NULLABLE

	TxnDate civil.Date `bigquery:"txn_date"` // REQUIRED DATE

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING

	Direction   string `bigquery:"direction"`   // REQUIRED
	Description string `bigquery:"description"` // REQUIRED

	Reference bigquery.NullString `bigquery:"reference"` // NULLABLE
	Category  bigquery.NullString `bigquery:"category"`  // NULLABLE

	BalanceAfter *big.Rat `bigquery:"balance_after"` // NULLABLE NUMERIC

	Fingerprint string `bigquery:"fingerprint"` // REQUIRED

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	DeletedTS bigquery.NullTimestamp `bigquery:"deleted_ts"` // NULLABLE
}

func transactionRowFromDomain(t *ledger.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID: t.TransactionID,
		OwnerID:       t.OwnerID,
		AccountID:     t.AccountID,
		TxnDate:       t.Date,
		Amount:        ratFromDecimal(t.Amount),
		Currency:      t.Currency,
		Direction:     string(t.Direction),
		Description:   t.Description,
		Fingerprint:   t.Fingerprint,
		CreatedTS:     t.CreatedAt,
	}
	if t.UploadID != "" {
		row.UploadID = bigquery.NullString{StringVal: t.UploadID, Valid: true}
	}
	if t.Reference != "" {
		row.Reference = bigquery.NullString{StringVal: t.Reference, Valid: true}
	}
	if t.Category != "" {
		row.Category = bigquery.NullString{StringVal: t.Category, Valid: true}
	}
	if t.BalanceAfter.Valid {
		row.BalanceAfter = ratFromDecimal(t.BalanceAfter.Decimal)
	}
	if t.DeletedAt != nil {
		row.DeletedTS = bigquery.NullTimestamp{Timestamp: *t.DeletedAt, Valid: true}
	}
	return row
}

func (r *TransactionRow) toDomain() *ledger.Transaction {
	t := &ledger.Transaction{
		TransactionID: r.TransactionID,
		OwnerID:       r.OwnerID,
		AccountID:     r.AccountID,
		UploadID:      r.UploadID.StringVal,
		Date:          r.TxnDate,
		Amount:        decimalFromRat(r.Amount),
		Currency:      r.Currency,
		Direction:     ledger.Direction(r.Direction),
		Description:   r.Description,
		Reference:     r.Reference.StringVal,
		Category:      r.Category.StringVal,
		Fingerprint:   r.Fingerprint,
		CreatedAt:     r.CreatedTS,
	}
	if r.BalanceAfter != nil {
		t.BalanceAfter = decimal.NullDecimal{Decimal: decimalFromRat(r.BalanceAfter), Valid: true}
	}
	if r.DeletedTS.Valid {
		ts := r.DeletedTS.Timestamp
		t.DeletedAt = &ts
	}
	return t
}
