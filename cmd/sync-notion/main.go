// Command sync-notion exports the committed ledger to Notion databases.
// One-way, full-state: stale pages are archived, missing rows become pages.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"cloud.google.com/go/civil"

	"github.com/nkoval/finledger/internal/config"
	infraBQ "github.com/nkoval/finledger/internal/infra/bigquery"
	"github.com/nkoval/finledger/internal/logger"
	"github.com/nkoval/finledger/internal/notionsync"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()

	ownerID := flag.String("owner", "", "Owner id whose ledger is exported (required)")
	fromStr := flag.String("from", "", "Start date, YYYY-MM-DD (required)")
	toStr := flag.String("to", "", "End date, YYYY-MM-DD (required)")
	accountsDB := flag.String("accounts-db", "", "Notion accounts database id (optional; skips account sync when empty)")
	dryRun := flag.Bool("dry-run", false, "Log what would change without touching Notion")
	flag.Parse()

	if *ownerID == "" {
		log.Fatal().Msg("--owner is required")
	}
	if *fromStr == "" || *toStr == "" {
		log.Fatal().Msg("--from and --to are required")
	}
	if cfg.ProjectID == "" {
		log.Fatal().Msg("BQ_PROJECT is required")
	}
	if cfg.NotionToken == "" {
		log.Fatal().Msg("NOTION_TOKEN is required")
	}
	if cfg.NotionDatabase == "" {
		log.Fatal().Msg("NOTION_TRANSACTIONS_DB is required")
	}

	from, err := civil.ParseDate(*fromStr)
	if err != nil {
		log.Fatal().Err(err).Str("from", *fromStr).Msg("Invalid from date, want YYYY-MM-DD")
	}
	to, err := civil.ParseDate(*toStr)
	if err != nil {
		log.Fatal().Err(err).Str("to", *toStr).Msg("Invalid to date, want YYYY-MM-DD")
	}
	if to.Before(from) {
		log.Fatal().Str("from", *fromStr).Str("to", *toStr).Msg("to must not be before from")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := infraBQ.NewStore(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer store.Close()

	syncer := notionsync.NewSyncer(store.Ledger(), store.Accounts(), notionsync.NewClient(cfg.NotionToken), log)

	if *accountsDB != "" {
		if _, err := syncer.SyncAccounts(ctx, *ownerID, *accountsDB, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Account sync failed")
		}
	}

	result, err := syncer.SyncTransactions(ctx, *ownerID, cfg.NotionDatabase, from, to, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Transaction sync failed")
	}

	log.Info().
		Int("created", result.Created).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Notion sync done")
}
