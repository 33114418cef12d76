package ingest

import "errors"

var (
	// ErrUploadNotFound means no upload row exists for the id and owner.
	ErrUploadNotFound = errors.New("ingest: upload not found")

	// ErrCandidateNotFound means the upload has no candidate with the
	// requested temp id.
	ErrCandidateNotFound = errors.New("ingest: candidate not found")

	// ErrInvalidState means the upload's status does not allow the
	// requested operation, including losing the confirm guard to a
	// concurrent caller.
	ErrInvalidState = errors.New("ingest: invalid upload state")

	// ErrValidation means caller-supplied input failed validation.
	ErrValidation = errors.New("ingest: validation failed")

	// ErrSourceUnreadable means the uploaded file could not be turned into
	// text at all, as opposed to rows merely failing extraction.
	ErrSourceUnreadable = errors.New("ingest: source unreadable")
)
