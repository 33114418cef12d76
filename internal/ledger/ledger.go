package ledger

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Direction classifies how a transaction moves money relative to its account.
type Direction string

const (
	DirectionIncome   Direction = "income"
	DirectionExpense  Direction = "expense"
	DirectionTransfer Direction = "transfer"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionIncome, DirectionExpense, DirectionTransfer:
		return true
	}
	return false
}

// Signed applies the direction to an unsigned amount: income adds to the
// account, expense subtracts, transfer leaves the balance untouched.
func (d Direction) Signed(amount decimal.Decimal) decimal.Decimal {
	switch d {
	case DirectionIncome:
		return amount
	case DirectionExpense:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

var (
	// ErrDuplicateTransaction is returned by Create when a non-deleted
	// transaction with the same fingerprint already exists for the owner.
	ErrDuplicateTransaction = errors.New("ledger: duplicate transaction")

	// ErrAccountNotFound is returned when an account id does not resolve
	// for the owner.
	ErrAccountNotFound = errors.New("ledger: account not found")
)

// Transaction is one committed ledger entry. Amount is always the absolute
// value; Direction carries the sign.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	OwnerID       string          `json:"owner_id"`
	AccountID     string          `json:"account_id"`
	UploadID      string          `json:"upload_id,omitempty"`
	Date          civil.Date      `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Direction     Direction       `json:"direction"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference,omitempty"`
	Category      string          `json:"category,omitempty"`

	BalanceAfter decimal.NullDecimal `json:"balance_after,omitempty"`

	Fingerprint string     `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Account is the balance-carrying side of the ledger. Its currency is
// authoritative for everything committed into it.
type Account struct {
	AccountID string          `json:"account_id"`
	OwnerID   string          `json:"owner_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	AccountID string
	From      *civil.Date
	To        *civil.Date
	Limit     int
}
