package ingest

import (
	"context"
	"fmt"
	"strings"
)

// Candidates returns the upload's current candidate buffer. Uploads that
// have not completed parsing simply have an empty buffer.
func (s *Service) Candidates(ctx context.Context, ownerID, uploadID string) ([]Candidate, error) {
	upload, err := s.Get(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}
	return upload.Candidates, nil
}

// EditCandidate applies a partial edit to one candidate and persists the
// buffer. Only completed uploads are editable. An edit that changes the
// fingerprint inputs re-runs the duplicate check for that candidate.
func (s *Service) EditCandidate(ctx context.Context, ownerID, uploadID string, tempID int, patch CandidatePatch) (*Candidate, error) {
	upload, err := s.Get(ctx, ownerID, uploadID)
	if err != nil {
		return nil, err
	}
	if upload.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: cannot edit candidates in status %s", ErrInvalidState, upload.Status)
	}

	idx := upload.CandidateByTempID(tempID)
	if idx < 0 {
		return nil, ErrCandidateNotFound
	}
	cand := upload.Candidates[idx]

	if patch.Date != nil {
		if !patch.Date.IsValid() {
			return nil, fmt.Errorf("%w: invalid date", ErrValidation)
		}
		cand.Date = *patch.Date
	}
	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
		}
		cand.Amount = *patch.Amount
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc == "" {
			return nil, fmt.Errorf("%w: description must not be empty", ErrValidation)
		}
		cand.Description = desc
	}
	if patch.Direction != nil {
		if !patch.Direction.Valid() {
			return nil, fmt.Errorf("%w: unknown direction %q", ErrValidation, *patch.Direction)
		}
		cand.Direction = *patch.Direction
	}
	if patch.Reference != nil {
		cand.Reference = strings.TrimSpace(*patch.Reference)
	}

	rechecked, err := s.CheckDuplicates(ctx, ownerID, upload.AccountID, []Candidate{cand})
	if err != nil {
		return nil, fmt.Errorf("recheck duplicate: %w", err)
	}
	cand = rechecked[0]

	upload.Candidates[idx] = cand
	if err := s.uploads.SaveCandidates(ctx, ownerID, uploadID, upload.Candidates); err != nil {
		return nil, fmt.Errorf("save candidates: %w", err)
	}

	s.log.Info().
		Str("upload_id", uploadID).
		Int("temp_id", tempID).
		Msg("Candidate edited")
	return &cand, nil
}
