// Package notionsync mirrors the committed ledger into Notion databases.
// Sync is one-way and full-state: pages whose key no longer matches a live
// ledger row are archived, missing rows get new pages, rows already present
// are left alone. Ledger ids as page keys make repeat runs converge instead
// of duplicating pages.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"cloud.google.com/go/civil"

	"github.com/nkoval/finledger/internal/ledger"
)

// pageSize is the Notion query page size, the API maximum.
const pageSize = 100

// Syncer drives exports from the ledger stores into Notion.
type Syncer struct {
	txns     TransactionSource
	accounts AccountSource
	notion   NotionAPI
	log      zerolog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(txns TransactionSource, accounts AccountSource, notion NotionAPI, log zerolog.Logger) *Syncer {
	return &Syncer{
		txns:     txns,
		accounts: accounts,
		notion:   notion,
		log:      log,
	}
}

// Result counts what one sync pass did. In dry-run mode the counters report
// what would have happened.
type Result struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SyncTransactions exports the owner's committed transactions in [from, to]
// to the database. Per-page failures are logged and counted, never fatal.
func (s *Syncer) SyncTransactions(ctx context.Context, ownerID, databaseID string, from, to civil.Date, dryRun bool) (Result, error) {
	txns, err := s.txns.List(ctx, ownerID, ledger.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return Result{}, fmt.Errorf("list transactions: %w", err)
	}

	live := make(map[string]bool, len(txns))
	for _, t := range txns {
		live[t.TransactionID] = true
	}

	pages, err := s.allPages(ctx, databaseID)
	if err != nil {
		return Result{}, err
	}

	existing, result := s.deleteStale(ctx, pages, propTransactionID, live, dryRun)

	for _, t := range txns {
		if existing[t.TransactionID] {
			result.Skipped++
			continue
		}
		if dryRun {
			s.log.Info().Str("transaction_id", t.TransactionID).Msg("Dry run: would create transaction page")
			result.Created++
			continue
		}
		page, err := s.notion.CreatePage(ctx, databaseID, transactionProperties(t))
		if err != nil {
			s.log.Warn().Err(err).Str("transaction_id", t.TransactionID).Msg("Failed to create transaction page")
			result.Failed++
			continue
		}
		s.log.Debug().
			Str("transaction_id", t.TransactionID).
			Str("page_id", string(page.ID)).
			Msg("Created transaction page")
		result.Created++
	}

	s.log.Info().
		Int("created", result.Created).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("total", len(txns)).
		Msg("Transaction sync finished")
	return result, nil
}

// SyncAccounts exports the owner's accounts to the database. Balances on
// already-exported accounts are refreshed in place.
func (s *Syncer) SyncAccounts(ctx context.Context, ownerID, databaseID string, dryRun bool) (Result, error) {
	accounts, err := s.accounts.List(ctx, ownerID)
	if err != nil {
		return Result{}, fmt.Errorf("list accounts: %w", err)
	}

	live := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		live[a.AccountID] = true
	}

	pages, err := s.allPages(ctx, databaseID)
	if err != nil {
		return Result{}, err
	}

	pageByAccount := make(map[string]string)
	for _, page := range pages {
		if id := pageKey(page, propAccountID); id != "" {
			pageByAccount[id] = string(page.ID)
		}
	}

	existing, result := s.deleteStale(ctx, pages, propAccountID, live, dryRun)

	for _, a := range accounts {
		props := accountProperties(a)

		if existing[a.AccountID] {
			// The page survives, but its balance may have moved.
			if !dryRun {
				if _, err := s.notion.UpdatePage(ctx, pageByAccount[a.AccountID], props); err != nil {
					s.log.Warn().Err(err).Str("account_id", a.AccountID).Msg("Failed to update account page")
					result.Failed++
					continue
				}
			}
			result.Skipped++
			continue
		}
		if dryRun {
			s.log.Info().Str("account_id", a.AccountID).Msg("Dry run: would create account page")
			result.Created++
			continue
		}
		page, err := s.notion.CreatePage(ctx, databaseID, props)
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", a.AccountID).Msg("Failed to create account page")
			result.Failed++
			continue
		}
		s.log.Debug().
			Str("account_id", a.AccountID).
			Str("page_id", string(page.ID)).
			Msg("Created account page")
		result.Created++
	}

	s.log.Info().
		Int("created", result.Created).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("total", len(accounts)).
		Msg("Account sync finished")
	return result, nil
}

// deleteStale archives pages whose key property is empty or names a row no
// longer live, and returns the set of keys that remain in the database.
func (s *Syncer) deleteStale(ctx context.Context, pages []notionapi.Page, property string, live map[string]bool, dryRun bool) (map[string]bool, Result) {
	var result Result
	existing := make(map[string]bool)

	for _, page := range pages {
		key := pageKey(page, property)
		if key != "" && live[key] {
			existing[key] = true
			continue
		}

		if dryRun {
			s.log.Info().
				Str("key", key).
				Str("page_id", string(page.ID)).
				Msg("Dry run: would archive stale page")
			result.Deleted++
			continue
		}
		if err := s.notion.DeletePage(ctx, string(page.ID)); err != nil {
			s.log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale page")
			result.Failed++
			continue
		}
		result.Deleted++
	}
	return existing, result
}

// allPages reads the whole database, following pagination cursors.
func (s *Syncer) allPages(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := s.notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
