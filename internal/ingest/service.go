package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nkoval/finledger/internal/ledger"
	"github.com/nkoval/finledger/internal/pdftext"
)

// Service runs the statement pipeline: register an upload, parse it into
// candidates, let the owner review them, confirm into the ledger.
type Service struct {
	uploads  UploadStore
	txns     Ledger
	accounts Accounts
	blobs    BlobSource
	// categories is optional; nil disables suggestions.
	categories Categorizer
	log        zerolog.Logger

	// pdfText is swappable so parsing logic is testable without real PDFs.
	pdfText func(data []byte) (string, error)
}

// NewService creates a pipeline service. categories may be nil.
func NewService(uploads UploadStore, txns Ledger, accounts Accounts, blobs BlobSource, categories Categorizer, log zerolog.Logger) *Service {
	return &Service{
		uploads:    uploads,
		txns:       txns,
		accounts:   accounts,
		blobs:      blobs,
		categories: categories,
		log:        log,
		pdfText:    pdftext.Extract,
	}
}

// Register records a new upload in state pending. The file must already be
// in object storage at fileURI; the target account must exist.
func (s *Service) Register(ctx context.Context, ownerID, accountID string, kind SourceKind, filename, fileURI string) (*StatementUpload, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unsupported source kind %q", ErrValidation, kind)
	}
	if filename == "" || fileURI == "" {
		return nil, fmt.Errorf("%w: filename and file uri are required", ErrValidation)
	}

	account, err := s.accounts.Get(ctx, ownerID, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if account == nil {
		return nil, ledger.ErrAccountNotFound
	}

	upload := &StatementUpload{
		UploadID:   uuid.New().String(),
		OwnerID:    ownerID,
		AccountID:  accountID,
		Kind:       kind,
		FileURI:    fileURI,
		Filename:   filename,
		Status:     StatusPending,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.uploads.Insert(ctx, upload); err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}

	s.log.Info().
		Str("upload_id", upload.UploadID).
		Str("account_id", accountID).
		Str("kind", string(kind)).
		Msg("Statement upload registered")
	return upload, nil
}

// Get returns one upload with its candidate buffer.
func (s *Service) Get(ctx context.Context, ownerID, uploadID string) (*StatementUpload, error) {
	upload, err := s.uploads.Get(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}
	return upload, nil
}

// List returns the owner's uploads, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*StatementUpload, error) {
	return s.uploads.List(ctx, ownerID)
}

// Parse extracts candidates from the uploaded file. Allowed from pending
// and, for retries, from failed. Exactly one parse runs at a time per
// upload; extraction failures on individual rows are counted, while an
// unreadable file fails the whole upload.
func (s *Service) Parse(ctx context.Context, ownerID, uploadID string) (*StatementUpload, error) {
	upload, err := s.Get(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.Status != StatusPending && upload.Status != StatusFailed {
		return nil, fmt.Errorf("%w: cannot parse upload in status %s", ErrInvalidState, upload.Status)
	}

	won, err := s.uploads.CompareAndSwapStatus(ctx, ownerID, uploadID, upload.Status, StatusParsing)
	if err != nil {
		return nil, fmt.Errorf("acquire parse: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: parse already in progress", ErrInvalidState)
	}

	result, parseErr := s.extract(ctx, upload)
	if parseErr != nil {
		if err := s.uploads.MarkFailed(ctx, ownerID, uploadID, parseErr.Error()); err != nil {
			s.log.Error().Err(err).Str("upload_id", uploadID).Msg("Failed to record parse failure")
		}
		return nil, parseErr
	}

	candidates, err := s.CheckDuplicates(ctx, ownerID, upload.AccountID, result.Candidates)
	if err != nil {
		if markErr := s.uploads.MarkFailed(ctx, ownerID, uploadID, err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Str("upload_id", uploadID).Msg("Failed to record parse failure")
		}
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if s.categories != nil {
		candidates = s.categories.Suggest(ctx, candidates)
	}

	if err := s.uploads.MarkParsed(ctx, ownerID, uploadID, candidates, result.Skipped); err != nil {
		return nil, fmt.Errorf("store candidates: %w", err)
	}

	s.log.Info().
		Str("upload_id", uploadID).
		Int("candidates", len(candidates)).
		Int("skipped_rows", result.Skipped).
		Msg("Statement parsed")

	now := time.Now().UTC()
	upload.Status = StatusCompleted
	upload.Error = ""
	upload.Candidates = candidates
	upload.SkippedRows = result.Skipped
	upload.ParsedAt = &now
	return upload, nil
}

// extract downloads the file and runs the extractor for its kind.
func (s *Service) extract(ctx context.Context, upload *StatementUpload) (ExtractResult, error) {
	data, err := s.blobs.Download(ctx, upload.FileURI)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("%w: download %s: %v", ErrSourceUnreadable, upload.FileURI, err)
	}

	switch upload.Kind {
	case KindPDF:
		text, err := s.pdfText(data)
		if err != nil {
			return ExtractResult{}, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		return ExtractFreeText(text), nil
	default:
		return ExtractTabular(string(data)), nil
	}
}

// CheckDuplicates fingerprints every candidate and flags the ones whose
// fingerprint already exists in the owner's ledger. Flags are advisory:
// commit re-checks through the unique constraint.
func (s *Service) CheckDuplicates(ctx context.Context, ownerID, accountID string, candidates []Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	fingerprints := make([]string, len(candidates))
	for i := range candidates {
		candidates[i].Fingerprint = ledger.Fingerprint(candidates[i].Date, candidates[i].Amount, candidates[i].Description, accountID)
		fingerprints[i] = candidates[i].Fingerprint
	}

	existing, err := s.txns.FindByFingerprints(ctx, ownerID, fingerprints)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		txnID, dup := existing[candidates[i].Fingerprint]
		candidates[i].Duplicate = dup
		candidates[i].MatchedTransactionID = txnID
	}
	return candidates, nil
}
