package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/nkoval/finledger/internal/ledger"
)

const transactionColumns = `
	transaction_id,
	owner_id,
	account_id,
	upload_id,
	txn_date,
	amount,
	currency,
	direction,
	description,
	reference,
	category,
	balance_after,
	fingerprint,
	created_ts,
	deleted_ts`

// Create inserts one committed transaction. Fingerprint uniqueness among
// the owner's live rows is enforced by the write itself: the MERGE inserts
// only when no live row carries the fingerprint, and BigQuery serializes
// conflicting DML on the table, so concurrent commits of the same logical
// row cannot both land. Zero affected rows means the row already exists
// and returns ledger.ErrDuplicateTransaction.
func (s *Ledger) Create(ctx context.Context, txn *ledger.Transaction) error {
	q := s.client.Query(createTransactionSQL(s.table(transactionsTable)))
	q.Parameters = createTransactionParams(txn)

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if affected == 0 {
		return ledger.ErrDuplicateTransaction
	}
	return nil
}

func createTransactionSQL(table string) string {
	return fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @owner_id AS owner_id, @fingerprint AS fingerprint) S
		ON T.owner_id = S.owner_id
		   AND T.fingerprint = S.fingerprint
		   AND T.deleted_ts IS NULL
		WHEN NOT MATCHED THEN
		  INSERT (%s)
		  VALUES (
			@transaction_id, @owner_id, @account_id, @upload_id,
			@txn_date, @amount, @currency, @direction, @description,
			@reference, @category, CAST(@balance_after AS NUMERIC),
			@fingerprint, @created_ts, @deleted_ts
		  )
	`, table, transactionColumns)
}

func createTransactionParams(txn *ledger.Transaction) []bigquery.QueryParameter {
	row := transactionRowFromDomain(txn)

	// The client has no null NUMERIC parameter type, so balance_after
	// travels as a string and is cast in SQL.
	balanceAfter := bigquery.NullString{}
	if txn.BalanceAfter.Valid {
		balanceAfter = bigquery.NullString{StringVal: txn.BalanceAfter.Decimal.String(), Valid: true}
	}

	return []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "owner_id", Value: row.OwnerID},
		{Name: "account_id", Value: row.AccountID},
		{Name: "upload_id", Value: row.UploadID},
		{Name: "txn_date", Value: row.TxnDate},
		{Name: "amount", Value: row.Amount},
		{Name: "currency", Value: row.Currency},
		{Name: "direction", Value: row.Direction},
		{Name: "description", Value: row.Description},
		{Name: "reference", Value: row.Reference},
		{Name: "category", Value: row.Category},
		{Name: "balance_after", Value: balanceAfter},
		{Name: "fingerprint", Value: row.Fingerprint},
		{Name: "created_ts", Value: row.CreatedTS},
		{Name: "deleted_ts", Value: row.DeletedTS},
	}
}

type fingerprintHit struct {
	Fingerprint   string `bigquery:"fingerprint"`
	TransactionID string `bigquery:"transaction_id"`
}

// FindByFingerprints returns the subset of fingerprints that already exist
// as live rows for the owner, mapped to the matching transaction ids.
func (s *Ledger) FindByFingerprints(ctx context.Context, ownerID string, fingerprints []string) (map[string]string, error) {
	matches := make(map[string]string, len(fingerprints))
	if len(fingerprints) == 0 {
		return matches, nil
	}

	q := s.client.Query(fmt.Sprintf(`
		SELECT fingerprint, transaction_id
		FROM %s
		WHERE owner_id = @owner_id
		  AND fingerprint IN UNNEST(@fingerprints)
		  AND deleted_ts IS NULL
	`, s.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "fingerprints", Value: fingerprints},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindByFingerprints: query read: %w", err)
	}
	for {
		var hit fingerprintHit
		err := it.Next(&hit)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FindByFingerprints: iter next: %w", err)
		}
		if _, ok := matches[hit.Fingerprint]; !ok {
			matches[hit.Fingerprint] = hit.TransactionID
		}
	}
	return matches, nil
}

// List returns the owner's committed transactions, newest first. Zero
// filter fields are ignored.
func (s *Ledger) List(ctx context.Context, ownerID string, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	where := []string{"owner_id = @owner_id", "deleted_ts IS NULL"}
	params := []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}
	if filter.AccountID != "" {
		where = append(where, "account_id = @account_id")
		params = append(params, bigquery.QueryParameter{Name: "account_id", Value: filter.AccountID})
	}
	if filter.From != nil {
		where = append(where, "txn_date >= @from_date")
		params = append(params, bigquery.QueryParameter{Name: "from_date", Value: *filter.From})
	}
	if filter.To != nil {
		where = append(where, "txn_date <= @to_date")
		params = append(params, bigquery.QueryParameter{Name: "to_date", Value: *filter.To})
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY txn_date DESC, created_ts DESC
	`, transactionColumns, s.table(transactionsTable), strings.Join(where, " AND "))
	if filter.Limit > 0 {
		// Parameters are not allowed in LIMIT.
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	q := s.client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: query read: %w", err)
	}

	var txns []*ledger.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iter next: %w", err)
		}
		txns = append(txns, row.toDomain())
	}
	return txns, nil
}
