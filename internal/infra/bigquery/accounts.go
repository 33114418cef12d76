package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/nkoval/finledger/internal/ledger"
)

type AccountRow struct {
	AccountID string `bigquery:"account_id"` // REQUIRED
	OwnerID   string `bigquery:"owner_id"`   // REQUIRED

	Name     string `bigquery:"name"`     // REQUIRED
	Currency string `bigquery:"currency"` // REQUIRED

	CurrentBalance *big.Rat `bigquery:"current_balance"` // REQUIRED NUMERIC

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
	DeletedTS bigquery.NullTimestamp `bigquery:"deleted_ts"` // NULLABLE
}

func (r *AccountRow) toDomain() *ledger.Account {
	return &ledger.Account{
		AccountID: r.AccountID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Currency:  r.Currency,
		Balance:   decimalFromRat(r.CurrentBalance),
		CreatedAt: r.CreatedTS,
	}
}
