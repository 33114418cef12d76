package ingest

// In-memory fakes for pipeline tests. They keep the real store semantics,
// compare-and-swap included, so lifecycle behavior is exercised without
// BigQuery.

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/nkoval/finledger/internal/ledger"
)

func mustDate(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeUploads struct {
	uploads map[string]*StatementUpload

	insertErr error
	getErr    error
	casErr    error
	markErr   error
	saveErr   error

	// casWin forces the compare-and-swap outcome when set.
	casWin *bool
}

func uploadKey(ownerID, uploadID string) string {
	return ownerID + "/" + uploadID
}

func (f *fakeUploads) Insert(_ context.Context, upload *StatementUpload) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *upload
	f.uploads[uploadKey(upload.OwnerID, upload.UploadID)] = &cp
	return nil
}

func (f *fakeUploads) Get(_ context.Context, ownerID, uploadID string) (*StatementUpload, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.uploads[uploadKey(ownerID, uploadID)]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.Candidates = append([]Candidate(nil), u.Candidates...)
	return &cp, nil
}

func (f *fakeUploads) List(_ context.Context, ownerID string) ([]*StatementUpload, error) {
	var out []*StatementUpload
	for _, u := range f.uploads {
		if u.OwnerID == ownerID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUploads) CompareAndSwapStatus(_ context.Context, ownerID, uploadID string, from, to UploadStatus) (bool, error) {
	if f.casErr != nil {
		return false, f.casErr
	}
	if f.casWin != nil {
		return *f.casWin, nil
	}
	u, ok := f.uploads[uploadKey(ownerID, uploadID)]
	if !ok || u.Status != from {
		return false, nil
	}
	u.Status = to
	return true, nil
}

func (f *fakeUploads) MarkParsed(_ context.Context, ownerID, uploadID string, candidates []Candidate, skippedRows int) error {
	if f.markErr != nil {
		return f.markErr
	}
	u, ok := f.uploads[uploadKey(ownerID, uploadID)]
	if !ok {
		return ErrUploadNotFound
	}
	u.Status = StatusCompleted
	u.Error = ""
	u.Candidates = append([]Candidate(nil), candidates...)
	u.SkippedRows = skippedRows
	return nil
}

func (f *fakeUploads) MarkFailed(_ context.Context, ownerID, uploadID string, cause string) error {
	if f.markErr != nil {
		return f.markErr
	}
	u, ok := f.uploads[uploadKey(ownerID, uploadID)]
	if !ok {
		return ErrUploadNotFound
	}
	u.Status = StatusFailed
	u.Error = cause
	return nil
}

func (f *fakeUploads) SaveCandidates(_ context.Context, ownerID, uploadID string, candidates []Candidate) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	u, ok := f.uploads[uploadKey(ownerID, uploadID)]
	if !ok {
		return ErrUploadNotFound
	}
	u.Candidates = append([]Candidate(nil), candidates...)
	return nil
}

// stored returns the raw stored upload, bypassing the copy Get makes.
func (f *fakeUploads) stored(ownerID, uploadID string) *StatementUpload {
	return f.uploads[uploadKey(ownerID, uploadID)]
}

type fakeLedger struct {
	txns []*ledger.Transaction

	findErr error
	// createErrFor fails Create for transactions with this description.
	createErrFor map[string]error
}

func (f *fakeLedger) Create(_ context.Context, txn *ledger.Transaction) error {
	if err := f.createErrFor[txn.Description]; err != nil {
		return err
	}
	for _, t := range f.txns {
		if t.OwnerID == txn.OwnerID && t.Fingerprint == txn.Fingerprint && t.DeletedAt == nil {
			return ledger.ErrDuplicateTransaction
		}
	}
	cp := *txn
	f.txns = append(f.txns, &cp)
	return nil
}

func (f *fakeLedger) FindByFingerprints(_ context.Context, ownerID string, fingerprints []string) (map[string]string, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make(map[string]string)
	for _, fp := range fingerprints {
		for _, t := range f.txns {
			if t.OwnerID == ownerID && t.Fingerprint == fp && t.DeletedAt == nil {
				out[fp] = t.TransactionID
				break
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) List(_ context.Context, ownerID string, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction
	for _, t := range f.txns {
		if t.OwnerID != ownerID || t.DeletedAt != nil {
			continue
		}
		if filter.AccountID != "" && t.AccountID != filter.AccountID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeAccounts struct {
	accounts map[string]*ledger.Account

	adjustErr   error
	adjustCalls int
}

func (f *fakeAccounts) Get(_ context.Context, ownerID, accountID string) (*ledger.Account, error) {
	a, ok := f.accounts[uploadKey(ownerID, accountID)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) List(_ context.Context, ownerID string) ([]*ledger.Account, error) {
	var out []*ledger.Account
	for _, a := range f.accounts {
		if a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAccounts) AdjustBalance(_ context.Context, ownerID, accountID string, delta decimal.Decimal) error {
	f.adjustCalls++
	if f.adjustErr != nil {
		return f.adjustErr
	}
	a, ok := f.accounts[uploadKey(ownerID, accountID)]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	return nil
}

type fakeBlobs struct {
	objects map[string][]byte

	downloadErr error
}

func (f *fakeBlobs) Download(_ context.Context, uri string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.objects[uri]
	if !ok {
		return nil, ErrSourceUnreadable
	}
	return data, nil
}

type fakeCategorizer struct {
	category string
}

func (f *fakeCategorizer) Suggest(_ context.Context, candidates []Candidate) []Candidate {
	for i := range candidates {
		candidates[i].Category = f.category
	}
	return candidates
}
