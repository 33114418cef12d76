package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

// Confirm commits candidates into the ledger. tempIDs selects which: nil
// means all, an empty non-nil slice none. Selected candidates are processed
// in their original buffer order and each lands in exactly one result
// bucket; a failing candidate never aborts the rest. The account balance
// absorbs the net of created transactions in a single adjustment.
//
// One confirm runs at a time per upload: the status is swapped from
// completed to committing for the duration, and a caller losing that swap
// gets ErrInvalidState. Confirm does not consume the upload, so repeating
// it is safe: everything already committed resolves as a duplicate.
func (s *Service) Confirm(ctx context.Context, ownerID, uploadID string, tempIDs []int, skipDuplicates bool) (*CommitResult, error) {
	upload, err := s.Get(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: cannot confirm upload in status %s", ErrInvalidState, upload.Status)
	}

	account, err := s.accounts.Get(ctx, ownerID, upload.AccountID)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if account == nil {
		return nil, ledger.ErrAccountNotFound
	}

	selected, err := selectCandidates(upload.Candidates, tempIDs)
	if err != nil {
		return nil, err
	}

	won, err := s.uploads.CompareAndSwapStatus(ctx, ownerID, uploadID, StatusCompleted, StatusCommitting)
	if err != nil {
		return nil, fmt.Errorf("acquire confirm: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: confirm already in progress", ErrInvalidState)
	}
	defer func() {
		if _, err := s.uploads.CompareAndSwapStatus(ctx, ownerID, uploadID, StatusCommitting, StatusCompleted); err != nil {
			s.log.Error().Err(err).Str("upload_id", uploadID).Msg("Failed to release confirm guard")
		}
	}()

	result := &CommitResult{}
	delta := decimal.Zero
	for _, cand := range selected {
		if cand.Duplicate && skipDuplicates {
			result.Duplicates++
			continue
		}

		txn := transactionFromCandidate(upload, account, cand)
		if err := s.txns.Create(ctx, txn); err != nil {
			if errors.Is(err, ledger.ErrDuplicateTransaction) && skipDuplicates {
				result.Duplicates++
			} else {
				s.log.Warn().Err(err).
					Str("upload_id", uploadID).
					Int("temp_id", cand.TempID).
					Msg("Candidate not committed")
				result.Skipped++
			}
			continue
		}

		result.Created++
		result.Committed = append(result.Committed, txn)
		delta = delta.Add(cand.Direction.Signed(cand.Amount))
	}

	if result.Created > 0 && !delta.IsZero() {
		if err := s.accounts.AdjustBalance(ctx, ownerID, upload.AccountID, delta); err != nil {
			// The transactions in result are already committed.
			return result, fmt.Errorf("adjust balance: %w", err)
		}
	}

	s.log.Info().
		Str("upload_id", uploadID).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("duplicates", result.Duplicates).
		Str("balance_delta", delta.String()).
		Msg("Statement confirmed")
	return result, nil
}

// selectCandidates resolves a confirm selection against the buffer,
// preserving buffer order. Unknown temp ids fail the whole confirm before
// anything is committed.
func selectCandidates(candidates []Candidate, tempIDs []int) ([]Candidate, error) {
	if tempIDs == nil {
		return candidates, nil
	}

	wanted := make(map[int]bool, len(tempIDs))
	for _, id := range tempIDs {
		wanted[id] = true
	}

	selected := make([]Candidate, 0, len(tempIDs))
	for _, cand := range candidates {
		if wanted[cand.TempID] {
			selected = append(selected, cand)
			delete(wanted, cand.TempID)
		}
	}
	if len(wanted) > 0 {
		return nil, fmt.Errorf("%w: selection refers to unknown temp ids", ErrCandidateNotFound)
	}
	return selected, nil
}

func transactionFromCandidate(upload *StatementUpload, account *ledger.Account, cand Candidate) *ledger.Transaction {
	txn := &ledger.Transaction{
		TransactionID: uuid.New().String(),
		OwnerID:       upload.OwnerID,
		AccountID:     upload.AccountID,
		UploadID:      upload.UploadID,
		Date:          cand.Date,
		Amount:        cand.Amount,
		Currency:      account.Currency,
		Direction:     cand.Direction,
		Description:   cand.Description,
		Reference:     cand.Reference,
		Category:      cand.Category,
		BalanceAfter:  cand.Balance,
		CreatedAt:     time.Now().UTC(),
	}
	txn.Fingerprint = txn.ComputeFingerprint()
	return txn
}
