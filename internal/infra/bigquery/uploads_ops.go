package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/nkoval/finledger/internal/ingest"
)

const uploadColumns = `
	upload_id,
	owner_id,
	account_id,
	kind,
	file_uri,
	original_filename,
	status,
	error_message,
	candidates_json,
	skipped_rows,
	uploaded_ts,
	parsed_ts,
	updated_ts`

// Insert writes a new upload row.
func (s *Uploads) Insert(ctx context.Context, upload *ingest.StatementUpload) error {
	row, err := uploadRowFromDomain(upload)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	q := s.client.Query(fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (
			@upload_id, @owner_id, @account_id, @kind, @file_uri,
			@original_filename, @status, @error_message, @candidates_json,
			@skipped_rows, @uploaded_ts, @parsed_ts, @updated_ts
		)
	`, s.table(uploadsTable), uploadColumns))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "upload_id", Value: row.UploadID},
		{Name: "owner_id", Value: row.OwnerID},
		{Name: "account_id", Value: row.AccountID},
		{Name: "kind", Value: row.Kind},
		{Name: "file_uri", Value: row.FileURI},
		{Name: "original_filename", Value: row.OriginalFilename},
		{Name: "status", Value: row.Status},
		{Name: "error_message", Value: row.ErrorMessage},
		{Name: "candidates_json", Value: row.CandidatesJSON},
		{Name: "skipped_rows", Value: row.SkippedRows},
		{Name: "uploaded_ts", Value: row.UploadedTS},
		{Name: "parsed_ts", Value: row.ParsedTS},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	if _, err := s.runDML(ctx, q); err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

// Get fetches one upload scoped to its owner. Returns (nil, nil) when no
// row matches.
func (s *Uploads) Get(ctx context.Context, ownerID, uploadID string) (*ingest.StatementUpload, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id AND upload_id = @upload_id
		LIMIT 1
	`, uploadColumns, s.table(uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "upload_id", Value: uploadID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Get: query read: %w", err)
	}

	var row UploadRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: iter next: %w", err)
	}
	return row.toDomain()
}

// List returns the owner's uploads, newest first.
func (s *Uploads) List(ctx context.Context, ownerID string) ([]*ingest.StatementUpload, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY uploaded_ts DESC
	`, uploadColumns, s.table(uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: query read: %w", err)
	}

	var uploads []*ingest.StatementUpload
	for {
		var row UploadRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iter next: %w", err)
		}
		u, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// CompareAndSwapStatus transitions the upload's status only if it still has
// the expected one, reporting whether this caller made the change. The
// single UPDATE is what makes parse and confirm single-flight.
func (s *Uploads) CompareAndSwapStatus(ctx context.Context, ownerID, uploadID string, from, to ingest.UploadStatus) (bool, error) {
	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @to, updated_ts = @now
		WHERE owner_id = @owner_id AND upload_id = @upload_id AND status = @from
	`, s.table(uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "to", Value: string(to)},
		{Name: "now", Value: time.Now()},
		{Name: "owner_id", Value: ownerID},
		{Name: "upload_id", Value: uploadID},
		{Name: "from", Value: string(from)},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return false, fmt.Errorf("CompareAndSwapStatus: %w", err)
	}
	return affected > 0, nil
}

// MarkParsed stores extraction output and completes the upload.
func (s *Uploads) MarkParsed(ctx context.Context, ownerID, uploadID string, candidates []ingest.Candidate, skippedRows int) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("MarkParsed: marshal candidates: %w", err)
	}

	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    error_message = NULL,
		    candidates_json = @candidates_json,
		    skipped_rows = @skipped_rows,
		    parsed_ts = @now,
		    updated_ts = @now
		WHERE owner_id = @owner_id AND upload_id = @upload_id
	`, s.table(uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: string(ingest.StatusCompleted)},
		{Name: "candidates_json", Value: string(data)},
		{Name: "skipped_rows", Value: int64(skippedRows)},
		{Name: "now", Value: time.Now()},
		{Name: "owner_id", Value: ownerID},
		{Name: "upload_id", Value: uploadID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("MarkParsed: %w", err)
	}
	if affected == 0 {
		return ingest.ErrUploadNotFound
	}
	return nil
}

// MarkFailed records a terminal parse error.
func (s *Uploads) MarkFailed(ctx context.Context, ownerID, uploadID string, cause string) error {
	const maxLen = 2000
	if len(cause) > maxLen {
		cause = cause[:maxLen]
	}

	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET status = @status, error_message = @error_message, updated_ts = @now
		WHERE owner_id = @owner_id AND upload_id = @upload_id
	`, s.table(uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: string(ingest.StatusFailed)},
		{Name: "error_message", Value: cause},
		{Name: "now", Value: time.Now()},
		{Name: "owner_id", Value: ownerID},
		{Name: "upload_id", Value: uploadID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("MarkFailed: %w", err)
	}
	if affected == 0 {
		return ingest.ErrUploadNotFound
	}
	return nil
}

// SaveCandidates replaces the candidate buffer after a review edit.
func (s *Uploads) SaveCandidates(ctx context.Context, ownerID, uploadID string, candidates []ingest.Candidate) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("SaveCandidates: marshal candidates: %w", err)
	}

	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET candidates_json = @candidates_json, updated_ts = @now
		WHERE owner_id = @owner_id AND upload_id = @upload_id
	`, s.table(uploadsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "candidates_json", Value: string(data)},
		{Name: "now", Value: time.Now()},
		{Name: "owner_id", Value: ownerID},
		{Name: "upload_id", Value: uploadID},
	}

	affected, err := s.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("SaveCandidates: %w", err)
	}
	if affected == 0 {
		return ingest.ErrUploadNotFound
	}
	return nil
}
