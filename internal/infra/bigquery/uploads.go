package bigquery

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/nkoval/finledger/internal/ingest"
)

// UploadRow mirrors the statement_uploads table. The candidate buffer is a
// JSON document in candidates_json: candidates live and die with their
// upload and are never queried relationally.
type UploadRow struct {
	UploadID         string                 `bigquery:"upload_id"`
	OwnerID          string                 `bigquery:"owner_id"`
	AccountID        string                 `bigquery:"account_id"`
	Kind             string                 `bigquery:"kind"`
	FileURI          string                 `bigquery:"file_uri"`
	OriginalFilename string                 `bigquery:"original_filename"`
	Status           string                 `bigquery:"status"`
	ErrorMessage     bigquery.NullString    `bigquery:"error_message"`
	CandidatesJSON   bigquery.NullString    `bigquery:"candidates_json"`
	SkippedRows      int64                  `bigquery:"skipped_rows"`
	UploadedTS       time.Time              `bigquery:"uploaded_ts"`
	ParsedTS         bigquery.NullTimestamp `bigquery:"parsed_ts"`
	UpdatedTS        bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func uploadRowFromDomain(u *ingest.StatementUpload) (*UploadRow, error) {
	row := &UploadRow{
		UploadID:         u.UploadID,
		OwnerID:          u.OwnerID,
		AccountID:        u.AccountID,
		Kind:             string(u.Kind),
		FileURI:          u.FileURI,
		OriginalFilename: u.Filename,
		Status:           string(u.Status),
		SkippedRows:      int64(u.SkippedRows),
		UploadedTS:       u.UploadedAt,
	}
	if u.Error != "" {
		row.ErrorMessage = bigquery.NullString{StringVal: u.Error, Valid: true}
	}
	if u.Candidates != nil {
		data, err := json.Marshal(u.Candidates)
		if err != nil {
			return nil, fmt.Errorf("marshal candidates: %w", err)
		}
		row.CandidatesJSON = bigquery.NullString{StringVal: string(data), Valid: true}
	}
	if u.ParsedAt != nil {
		row.ParsedTS = bigquery.NullTimestamp{Timestamp: *u.ParsedAt, Valid: true}
	}
	return row, nil
}

func (r *UploadRow) toDomain() (*ingest.StatementUpload, error) {
	u := &ingest.StatementUpload{
		UploadID:    r.UploadID,
		OwnerID:     r.OwnerID,
		AccountID:   r.AccountID,
		Kind:        ingest.SourceKind(r.Kind),
		FileURI:     r.FileURI,
		Filename:    r.OriginalFilename,
		Status:      ingest.UploadStatus(r.Status),
		SkippedRows: int(r.SkippedRows),
		UploadedAt:  r.UploadedTS,
	}
	if r.ErrorMessage.Valid {
		u.Error = r.ErrorMessage.StringVal
	}
	if r.CandidatesJSON.Valid && r.CandidatesJSON.StringVal != "" {
		if err := json.Unmarshal([]byte(r.CandidatesJSON.StringVal), &u.Candidates); err != nil {
			return nil, fmt.Errorf("unmarshal candidates for upload %s: %w", r.UploadID, err)
		}
	}
	if r.ParsedTS.Valid {
		ts := r.ParsedTS.Timestamp
		u.ParsedAt = &ts
	}
	return u, nil
}
