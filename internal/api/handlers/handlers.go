package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nkoval/finledger/internal/api/middleware"
	"github.com/nkoval/finledger/internal/gcstore"
	"github.com/nkoval/finledger/internal/ingest"
	"github.com/nkoval/finledger/internal/ledger"
)

// maxUploadBytes caps statement uploads. Bank exports are small files.
const maxUploadBytes = 20 << 20

// BlobStore is the slice of object storage the statements handler uses.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// statusFromError maps pipeline errors onto HTTP statuses. Unknown errors
// return 0 and are treated as internal.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, ingest.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrUploadNotFound),
		errors.Is(err, ingest.ErrCandidateNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrSourceUnreadable):
		return http.StatusUnprocessableEntity
	}
	return 0
}

// writeServiceError answers known pipeline errors with their mapped status
// and message; anything else is logged and becomes a 500 with the fallback.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, fallback string) {
	if status := statusFromError(err); status != 0 {
		middleware.WriteError(w, status, err.Error())
		return
	}
	log.Error().Err(err).Msg(fallback)
	middleware.WriteError(w, http.StatusInternalServerError, fallback)
}

// StatementsHandler handles statement upload endpoints.
type StatementsHandler struct {
	svc   *ingest.Service
	blobs BlobStore
	log   zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(svc *ingest.Service, blobs BlobStore, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		svc:   svc,
		blobs: blobs,
		log:   log,
	}
}

// UploadStatement handles POST /api/statements
func (h *StatementsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "A multipart file field is required")
		return
	}
	defer file.Close()

	accountID := r.FormValue("account_id")
	if accountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	kind := ingest.SourceKind(strings.ToLower(r.FormValue("kind")))
	if kind == "" {
		kind = kindFromFilename(header.Filename)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	owner := middleware.OwnerID(ctx)
	objectName := gcstore.StatementObject(owner, uuid.New().String(), header.Filename)
	uri, err := h.blobs.Upload(ctx, objectName, data, contentType)
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to store upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}

	upload, err := h.svc.Register(ctx, owner, accountID, kind, filepath.Base(header.Filename), uri)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to register upload")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, upload)
}

// ListStatements handles GET /api/statements
func (h *StatementsHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uploads, err := h.svc.List(ctx, middleware.OwnerID(ctx))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list statements")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}

	if uploads == nil {
		uploads = []*ingest.StatementUpload{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statements": uploads,
		"count":      len(uploads),
	})
}

// GetStatement handles GET /api/statements/{id}
func (h *StatementsHandler) GetStatement(w http.ResponseWriter, r *http.Request, uploadID string) {
	ctx := r.Context()

	upload, err := h.svc.Get(ctx, middleware.OwnerID(ctx), uploadID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get statement")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, upload)
}

// ParseStatement handles POST /api/statements/{id}/parse
func (h *StatementsHandler) ParseStatement(w http.ResponseWriter, r *http.Request, uploadID string) {
	ctx := r.Context()

	upload, err := h.svc.Parse(ctx, middleware.OwnerID(ctx), uploadID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to parse statement")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, upload)
}

// ListCandidates handles GET /api/statements/{id}/candidates
func (h *StatementsHandler) ListCandidates(w http.ResponseWriter, r *http.Request, uploadID string) {
	ctx := r.Context()

	candidates, err := h.svc.Candidates(ctx, middleware.OwnerID(ctx), uploadID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list candidates")
		return
	}

	if candidates == nil {
		candidates = []ingest.Candidate{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// EditCandidate handles PATCH /api/statements/{id}/candidates/{tempID}
func (h *StatementsHandler) EditCandidate(w http.ResponseWriter, r *http.Request, uploadID, tempIDStr string) {
	ctx := r.Context()

	tempID, err := strconv.Atoi(tempIDStr)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid temp id")
		return
	}

	var patch ingest.CandidatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cand, err := h.svc.EditCandidate(ctx, middleware.OwnerID(ctx), uploadID, tempID, patch)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to edit candidate")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, cand)
}

// ConfirmStatement handles POST /api/statements/{id}/confirm
func (h *StatementsHandler) ConfirmStatement(w http.ResponseWriter, r *http.Request, uploadID string) {
	ctx := r.Context()

	// temp_ids null or absent selects every candidate; an empty array
	// selects none. An empty body means confirm everything.
	var req struct {
		TempIDs        []int `json:"temp_ids"`
		SkipDuplicates bool  `json:"skip_duplicates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Confirm(ctx, middleware.OwnerID(ctx), uploadID, req.TempIDs, req.SkipDuplicates)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to confirm statement")
		return
	}

	if result.Committed == nil {
		result.Committed = []*ledger.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// kindFromFilename infers the source kind from the file extension.
func kindFromFilename(name string) ingest.SourceKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return ingest.KindPDF
	case ".csv", ".txt":
		return ingest.KindCSV
	}
	return ""
}

// TransactionsHandler handles committed ledger endpoints.
type TransactionsHandler struct {
	ledger ingest.Ledger
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(ledger ingest.Ledger, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		ledger: ledger,
		log:    log,
	}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.ledger.List(ctx, middleware.OwnerID(ctx), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if txns == nil {
		txns = []*ledger.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txns)
}

// filterFromQuery parses the account_id, from, to and limit parameters.
func filterFromQuery(query url.Values) (ledger.TransactionFilter, error) {
	filter := ledger.TransactionFilter{AccountID: query.Get("account_id")}

	if from := query.Get("from"); from != "" {
		d, err := civil.ParseDate(from)
		if err != nil {
			return filter, errors.New("invalid from date, want YYYY-MM-DD")
		}
		filter.From = &d
	}
	if to := query.Get("to"); to != "" {
		d, err := civil.ParseDate(to)
		if err != nil {
			return filter, errors.New("invalid to date, want YYYY-MM-DD")
		}
		filter.To = &d
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	accounts ingest.Accounts
	log      zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accounts ingest.Accounts, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
		log:      log,
	}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.accounts.List(ctx, middleware.OwnerID(ctx))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	if accounts == nil {
		accounts = []*ledger.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}
