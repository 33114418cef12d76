package notionsync

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/nkoval/finledger/internal/ledger"
)

// NotionAPI is the slice of the Notion SDK the syncer uses. An interface so
// sync logic is testable without the real API.
type NotionAPI interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	// DeletePage archives the page; Notion has no hard delete.
	DeletePage(ctx context.Context, pageID string) error
}

// TransactionSource lists committed ledger transactions for export.
type TransactionSource interface {
	List(ctx context.Context, ownerID string, filter ledger.TransactionFilter) ([]*ledger.Transaction, error)
}

// AccountSource lists the owner's accounts for export.
type AccountSource interface {
	List(ctx context.Context, ownerID string) ([]*ledger.Account, error)
}
