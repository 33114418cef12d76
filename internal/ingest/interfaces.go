package ingest

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

// UploadStore persists statement uploads and their candidate buffers.
// Lookups return (nil, nil) when no row matches.
type UploadStore interface {
	Insert(ctx context.Context, upload *StatementUpload) error
	Get(ctx context.Context, ownerID, uploadID string) (*StatementUpload, error)
	List(ctx context.Context, ownerID string) ([]*StatementUpload, error)

	// CompareAndSwapStatus moves the upload from one status to another and
	// reports whether this caller won the transition.
	CompareAndSwapStatus(ctx context.Context, ownerID, uploadID string, from, to UploadStatus) (bool, error)

	// MarkParsed stores the extraction outcome and sets status completed.
	MarkParsed(ctx context.Context, ownerID, uploadID string, candidates []Candidate, skippedRows int) error

	// MarkFailed records the terminal parse error.
	MarkFailed(ctx context.Context, ownerID, uploadID string, cause string) error

	// SaveCandidates replaces the stored candidate buffer in place.
	SaveCandidates(ctx context.Context, ownerID, uploadID string, candidates []Candidate) error
}

// Ledger is the committed-transaction store the pipeline reads and writes.
type Ledger interface {
	// Create inserts a transaction, returning ledger.ErrDuplicateTransaction
	// when the fingerprint already exists for the owner.
	Create(ctx context.Context, txn *ledger.Transaction) error

	// FindByFingerprints returns the subset of fingerprints that already
	// exist for the owner, mapped to the matching transaction ids.
	FindByFingerprints(ctx context.Context, ownerID string, fingerprints []string) (map[string]string, error)

	List(ctx context.Context, ownerID string, filter ledger.TransactionFilter) ([]*ledger.Transaction, error)
}

// Accounts resolves accounts and applies committed balance deltas.
// Get returns (nil, nil) when the account does not exist.
type Accounts interface {
	Get(ctx context.Context, ownerID, accountID string) (*ledger.Account, error)
	List(ctx context.Context, ownerID string) ([]*ledger.Account, error)

	// AdjustBalance adds delta to the account's current balance.
	AdjustBalance(ctx context.Context, ownerID, accountID string, delta decimal.Decimal) error
}

// Categorizer attaches advisory category suggestions to candidates.
type Categorizer interface {
	Suggest(ctx context.Context, candidates []Candidate) []Candidate
}

// BlobSource fetches uploaded statement bytes back out of object storage.
type BlobSource interface {
	Download(ctx context.Context, uri string) ([]byte, error)
}
