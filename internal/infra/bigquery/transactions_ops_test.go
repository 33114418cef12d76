package bigquery

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

func sampleTransaction() *ledger.Transaction {
	txn := &ledger.Transaction{
		TransactionID: "txn-1",
		OwnerID:       "owner-1",
		AccountID:     "acct-1",
		UploadID:      "upl-1",
		Date:          civil.Date{Year: 2024, Month: 3, Day: 12},
		Amount:        decimal.RequireFromString("450.00"),
		Currency:      "GBP",
		Direction:     ledger.DirectionExpense,
		Description:   "COFFEE SHOP LONDON",
		CreatedAt:     time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC),
	}
	txn.Fingerprint = txn.ComputeFingerprint()
	return txn
}

// The insert must be conditional on the absence of a live row with the
// same owner and fingerprint, in one statement, so that two concurrent
// commits of the same logical row cannot both land.
func TestCreateTransactionSQLInsertsOnlyWhenAbsent(t *testing.T) {
	sql := createTransactionSQL("`proj.ds.transactions`")

	for _, want := range []string{
		"MERGE `proj.ds.transactions`",
		"WHEN NOT MATCHED",
		"T.owner_id = S.owner_id",
		"T.fingerprint = S.fingerprint",
		"T.deleted_ts IS NULL",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("statement missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "INSERT INTO") {
		t.Error("insert must run inside the MERGE, not as a separate statement")
	}
}

func TestCreateTransactionParamsCoverStatement(t *testing.T) {
	txn := sampleTransaction()
	sql := createTransactionSQL("t")
	params := createTransactionParams(txn)

	byName := make(map[string]any, len(params))
	for _, p := range params {
		if _, dup := byName[p.Name]; dup {
			t.Errorf("parameter %q bound twice", p.Name)
		}
		byName[p.Name] = p.Value
	}

	for _, m := range regexp.MustCompile(`@([a-z_]+)`).FindAllStringSubmatch(sql, -1) {
		if _, ok := byName[m[1]]; !ok {
			t.Errorf("statement references @%s but no parameter binds it", m[1])
		}
	}

	if got := byName["fingerprint"]; got != txn.Fingerprint {
		t.Errorf("fingerprint param = %v, want %q", got, txn.Fingerprint)
	}
	if got := byName["owner_id"]; got != txn.OwnerID {
		t.Errorf("owner_id param = %v, want %q", got, txn.OwnerID)
	}
}
