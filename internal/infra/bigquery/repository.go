// Package bigquery is the persistence layer: one BigQuery dataset holding
// statement uploads, the transaction ledger and accounts. All mutation goes
// through parameterized DML so rows are immediately updatable; streaming
// inserts would sit in the buffer and block the status swaps.
package bigquery

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ingest"
)

const (
	uploadsTable      = "statement_uploads"
	transactionsTable = "transactions"
	accountsTable     = "accounts"
	categoriesTable   = "categories"
)

// Store holds the dataset handle. The pipeline interfaces are served by
// table-scoped views so their method sets stay separate; the method files
// are split per table.
type Store struct {
	client  *bigquery.Client
	project string
	dataset string
}

// Uploads is the ingest.UploadStore view over statement_uploads.
type Uploads struct {
	*Store
}

// Ledger is the ingest.Ledger view over transactions.
type Ledger struct {
	*Store
}

// Accounts is the ingest.Accounts view over accounts.
type Accounts struct {
	*Store
}

var (
	_ ingest.UploadStore = (*Uploads)(nil)
	_ ingest.Ledger      = (*Ledger)(nil)
	_ ingest.Accounts    = (*Accounts)(nil)
)

func (s *Store) Uploads() *Uploads   { return &Uploads{s} }
func (s *Store) Ledger() *Ledger     { return &Ledger{s} }
func (s *Store) Accounts() *Accounts { return &Accounts{s} }

// NewStore creates a Store with its own BigQuery client.
func NewStore(ctx context.Context, project, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewStore: bigquery client: %w", err)
	}
	return NewStoreWithClient(client, project, dataset), nil
}

// NewStoreWithClient wraps an existing client, which the caller owns.
func NewStoreWithClient(client *bigquery.Client, project, dataset string) *Store {
	return &Store{client: client, project: project, dataset: dataset}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.project, s.dataset, name)
}

// runDML executes a mutation and returns the number of affected rows.
func (s *Store) runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}
	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// BigQuery NUMERIC surfaces as *big.Rat in the Go client; the domain speaks
// shopspring decimal. These two keep the boundary in one place.

func ratFromDecimal(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func decimalFromRat(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	// NUMERIC carries up to 9 fractional digits; reading back at that
	// scale keeps the round-trip lossless.
	return decimal.NewFromBigRat(r, 9)
}
