package notionsync

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cloud.google.com/go/civil"

	"github.com/nkoval/finledger/internal/ledger"
)

type fakeNotion struct {
	pages []notionapi.Page

	created  []notionapi.Properties
	updated  map[string]notionapi.Properties
	archived []string
}

func (f *fakeNotion) CreatePage(_ context.Context, _ string, props notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, props)
	return &notionapi.Page{ID: notionapi.ObjectID("created")}, nil
}

func (f *fakeNotion) UpdatePage(_ context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	if f.updated == nil {
		f.updated = make(map[string]notionapi.Properties)
	}
	f.updated[pageID] = props
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	// Serve one page per call so pagination is exercised.
	start := 0
	if req.StartCursor != "" {
		start = int(req.StartCursor[0] - '0')
	}
	resp := &notionapi.DatabaseQueryResponse{}
	if start < len(f.pages) {
		resp.Results = []notionapi.Page{f.pages[start]}
	}
	if start+1 < len(f.pages) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(rune('0' + start + 1))
	}
	return resp, nil
}

func (f *fakeNotion) DeletePage(_ context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

type fakeTxnSource struct {
	txns []*ledger.Transaction
}

func (f *fakeTxnSource) List(context.Context, string, ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	return f.txns, nil
}

type fakeAccountSource struct {
	accounts []*ledger.Account
}

func (f *fakeAccountSource) List(context.Context, string) ([]*ledger.Account, error) {
	return f.accounts, nil
}

func keyedPage(id, property, key string) notionapi.Page {
	page := notionapi.Page{ID: notionapi.ObjectID(id), Properties: notionapi.Properties{}}
	if key != "" {
		page.Properties[property] = &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{PlainText: key}},
		}
	}
	return page
}

func testTransaction(id string) *ledger.Transaction {
	return &ledger.Transaction{
		TransactionID: id,
		AccountID:     "acct-1",
		Date:          civil.Date{Year: 2024, Month: 3, Day: 1},
		Amount:        decimal.NewFromInt(450),
		Currency:      "EUR",
		Direction:     ledger.DirectionExpense,
		Description:   "Electricity Bill",
	}
}

func TestSyncTransactionsConverges(t *testing.T) {
	notion := &fakeNotion{
		pages: []notionapi.Page{
			keyedPage("page-live", propTransactionID, "txn-1"),
			keyedPage("page-stale", propTransactionID, "txn-gone"),
			keyedPage("page-unkeyed", propTransactionID, ""),
		},
	}
	syncer := NewSyncer(&fakeTxnSource{txns: []*ledger.Transaction{
		testTransaction("txn-1"),
		testTransaction("txn-2"),
	}}, nil, notion, zerolog.Nop())

	from := civil.Date{Year: 2024, Month: 1, Day: 1}
	to := civil.Date{Year: 2024, Month: 12, Day: 31}
	result, err := syncer.SyncTransactions(context.Background(), "owner-1", "db", from, to, false)
	if err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if result.Created != 1 || result.Deleted != 2 || result.Skipped != 1 || result.Failed != 0 {
		t.Errorf("result = %+v, want created=1 deleted=2 skipped=1 failed=0", result)
	}
	if len(notion.created) != 1 {
		t.Fatalf("created %d pages, want 1", len(notion.created))
	}
	if got := len(notion.archived); got != 2 {
		t.Errorf("archived %d pages, want 2", got)
	}
}

func TestSyncTransactionsDryRun(t *testing.T) {
	notion := &fakeNotion{
		pages: []notionapi.Page{
			keyedPage("page-stale", propTransactionID, "txn-gone"),
		},
	}
	syncer := NewSyncer(&fakeTxnSource{txns: []*ledger.Transaction{
		testTransaction("txn-1"),
	}}, nil, notion, zerolog.Nop())

	from := civil.Date{Year: 2024, Month: 1, Day: 1}
	to := civil.Date{Year: 2024, Month: 12, Day: 31}
	result, err := syncer.SyncTransactions(context.Background(), "owner-1", "db", from, to, true)
	if err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if result.Created != 1 || result.Deleted != 1 {
		t.Errorf("result = %+v, want created=1 deleted=1", result)
	}
	if len(notion.created) != 0 || len(notion.archived) != 0 {
		t.Errorf("dry run mutated Notion: created=%d archived=%d", len(notion.created), len(notion.archived))
	}
}

func TestSyncAccountsRefreshesExisting(t *testing.T) {
	notion := &fakeNotion{
		pages: []notionapi.Page{
			keyedPage("page-acct", propAccountID, "acct-1"),
		},
	}
	syncer := NewSyncer(nil, &fakeAccountSource{accounts: []*ledger.Account{
		{AccountID: "acct-1", Name: "Checking", Currency: "EUR", Balance: decimal.NewFromInt(5700)},
		{AccountID: "acct-2", Name: "Savings", Currency: "EUR", Balance: decimal.NewFromInt(100)},
	}}, notion, zerolog.Nop())

	result, err := syncer.SyncAccounts(context.Background(), "owner-1", "db", false)
	if err != nil {
		t.Fatalf("SyncAccounts: %v", err)
	}

	if result.Created != 1 || result.Skipped != 1 || result.Deleted != 0 {
		t.Errorf("result = %+v, want created=1 skipped=1 deleted=0", result)
	}
	props, ok := notion.updated["page-acct"]
	if !ok {
		t.Fatal("existing account page was not refreshed")
	}
	balance, ok := props["Balance"].(notionapi.NumberProperty)
	if !ok || balance.Number != 5700 {
		t.Errorf("refreshed balance = %v, want 5700", props["Balance"])
	}
}

func TestTransactionPropertiesSignsAmount(t *testing.T) {
	props := transactionProperties(testTransaction("txn-1"))

	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok {
		t.Fatal("Amount property missing")
	}
	if amount.Number != -450 {
		t.Errorf("expense amount = %v, want -450", amount.Number)
	}

	title, ok := props["Description"].(notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 || title.Title[0].Text.Content != "Electricity Bill" {
		t.Errorf("Description title = %+v, want Electricity Bill", props["Description"])
	}
}
