package ingest

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

// SourceKind declares the shape of an uploaded statement file.
type SourceKind string

const (
	// KindCSV is delimited text, consumed as-is.
	KindCSV SourceKind = "csv"
	// KindPDF is a PDF whose text is extracted before the line extractors run.
	KindPDF SourceKind = "pdf"
)

// Valid reports whether k is a supported source kind.
func (k SourceKind) Valid() bool {
	return k == KindCSV || k == KindPDF
}

// UploadStatus is the lifecycle state of a statement upload.
type UploadStatus string

const (
	StatusPending    UploadStatus = "pending"
	StatusParsing    UploadStatus = "parsing"
	StatusCompleted  UploadStatus = "completed"
	StatusFailed     UploadStatus = "failed"
	StatusCommitting UploadStatus = "committing"
)

// Candidate is one extracted transaction awaiting review. Amount is always
// the absolute value; Direction carries the sign. TempID is sequential
// within its upload and is how review edits and confirm selections address
// the candidate.
type Candidate struct {
	TempID      int              `json:"temp_id"`
	Date        civil.Date       `json:"date"`
	Amount      decimal.Decimal  `json:"amount"`
	Direction   ledger.Direction `json:"direction"`
	Description string           `json:"description"`
	Reference   string           `json:"reference,omitempty"`

	// Balance is the running balance as printed on the statement, when a
	// balance column mapped and parsed. Informational only.
	Balance decimal.NullDecimal `json:"balance,omitempty"`

	// Category is the advisory suggestion attached after extraction.
	Category string `json:"category,omitempty"`

	Fingerprint          string `json:"fingerprint,omitempty"`
	Duplicate            bool   `json:"duplicate"`
	MatchedTransactionID string `json:"matched_transaction_id,omitempty"`
}

// StatementUpload owns the candidate list produced from one uploaded file.
//
//	pending → parsing → completed
//	                  ↘ failed
//
// completed flips transiently to committing while a confirm holds the
// single-flight guard.
type StatementUpload struct {
	UploadID  string       `json:"upload_id"`
	OwnerID   string       `json:"owner_id"`
	AccountID string       `json:"account_id"`
	Kind      SourceKind   `json:"kind"`
	FileURI   string       `json:"file_uri"`
	Filename  string       `json:"filename"`
	Status    UploadStatus `json:"status"`
	Error     string       `json:"error,omitempty"`

	Candidates  []Candidate `json:"candidates,omitempty"`
	SkippedRows int         `json:"skipped_rows"`

	UploadedAt time.Time  `json:"uploaded_at"`
	ParsedAt   *time.Time `json:"parsed_at,omitempty"`
}

// CandidateByTempID returns the index of the candidate with the given temp
// id, or -1.
func (u *StatementUpload) CandidateByTempID(tempID int) int {
	for i := range u.Candidates {
		if u.Candidates[i].TempID == tempID {
			return i
		}
	}
	return -1
}

// ExtractResult is what an extractor hands back: the accepted candidates in
// source order plus the number of rows or lines it dropped. Drops are never
// errors.
type ExtractResult struct {
	Candidates []Candidate `json:"candidates"`
	Skipped    int         `json:"skipped"`
}

// CandidatePatch is a partial edit of one candidate. Nil fields stay
// untouched.
type CandidatePatch struct {
	Date        *civil.Date       `json:"date,omitempty"`
	Amount      *decimal.Decimal  `json:"amount,omitempty"`
	Description *string           `json:"description,omitempty"`
	Direction   *ledger.Direction `json:"direction,omitempty"`
	Reference   *string           `json:"reference,omitempty"`
}

// CommitResult reports what a confirm did. Counters follow the selection's
// original order semantics: every selected candidate lands in exactly one
// bucket.
type CommitResult struct {
	Created    int                   `json:"created"`
	Skipped    int                   `json:"skipped"`
	Duplicates int                   `json:"duplicates"`
	Committed  []*ledger.Transaction `json:"committed"`
}
