package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/nkoval/finledger/internal/ledger"
)

const accountColumns = `
	account_id,
	owner_id,
	name,
	currency,
	current_balance,
	created_ts,
	updated_ts,
	deleted_ts`

// Get fetches one account scoped to its owner. Returns (nil, nil) when no
// live row matches.
func (s *Accounts) Get(ctx context.Context, ownerID, accountID string) (*ledger.Account, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id AND account_id = @account_id AND deleted_ts IS NULL
		LIMIT 1
	`, accountColumns, s.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "account_id", Value: accountID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Get: query read: %w", err)
	}

	var row AccountRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: iter next: %w", err)
	}
	return row.toDomain(), nil
}

// List returns the owner's live accounts, newest first.
func (s *Accounts) List(ctx context.Context, ownerID string) ([]*ledger.Account, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id AND deleted_ts IS NULL
		ORDER BY created_ts DESC
	`, accountColumns, s.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: query read: %w", err)
	}

	var accounts []*ledger.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iter next: %w", err)
		}
		accounts = append(accounts, row.toDomain())
	}
	return accounts, nil
}

// AdjustBalance adds delta to the account's current balance.
func (s *Accounts) AdjustBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET current_balance = current_balance + @delta, updated_ts = @now
		WHERE owner_id = @owner_id AND account_id = @account_id AND deleted_ts IS NULL
	`, s.table(accountsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "delta", Value: ratFromDecimal(delta)},
		{Name: "now", Value: time.Now()},
		{Name: "owner_id", Value: ownerID},
		{Name: "account_id", Value: accountID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("AdjustBalance: %w", err)
	}
	if affected == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}
