// Command migrate creates the BigQuery dataset and tables the finledger
// services expect. Safe to re-run: existing datasets and tables are left
// untouched, so it doubles as a deployment preflight.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/joho/godotenv"
	"google.golang.org/api/googleapi"

	"github.com/nkoval/finledger/internal/config"
	"github.com/nkoval/finledger/internal/logger"
)

// tableSchemas defines every table in the dataset. Column names and modes
// must stay in step with the row structs in internal/infra/bigquery.
var tableSchemas = map[string]bigquery.Schema{
	"statement_uploads": {
		{Name: "upload_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "owner_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "account_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "kind", Type: bigquery.StringFieldType, Required: true},
		{Name: "file_uri", Type: bigquery.StringFieldType, Required: true},
		{Name: "original_filename", Type: bigquery.StringFieldType, Required: true},
		{Name: "status", Type: bigquery.StringFieldType, Required: true},
		{Name: "error_message", Type: bigquery.StringFieldType},
		// The candidate buffer is one JSON document: candidates live and
		// die with their upload and are never queried relationally.
		{Name: "candidates_json", Type: bigquery.StringFieldType},
		{Name: "skipped_rows", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "uploaded_ts", Type: bigquery.TimestampFieldType, Required: true},
		{Name: "parsed_ts", Type: bigquery.TimestampFieldType},
		{Name: "updated_ts", Type: bigquery.TimestampFieldType},
	},
	"transactions": {
		{Name: "transaction_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "owner_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "account_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "upload_id", Type: bigquery.StringFieldType},
		{Name: "txn_date", Type: bigquery.DateFieldType, Required: true},
		{Name: "amount", Type: bigquery.NumericFieldType, Required: true},
		{Name: "currency", Type: bigquery.StringFieldType, Required: true},
		{Name: "direction", Type: bigquery.StringFieldType, Required: true},
		{Name: "description", Type: bigquery.StringFieldType, Required: true},
		{Name: "reference", Type: bigquery.StringFieldType},
		{Name: "category", Type: bigquery.StringFieldType},
		{Name: "balance_after", Type: bigquery.NumericFieldType},
		{Name: "fingerprint", Type: bigquery.StringFieldType, Required: true},
		{Name: "created_ts", Type: bigquery.TimestampFieldType, Required: true},
		{Name: "deleted_ts", Type: bigquery.TimestampFieldType},
	},
	"accounts": {
		{Name: "account_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "owner_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "name", Type: bigquery.StringFieldType, Required: true},
		{Name: "currency", Type: bigquery.StringFieldType, Required: true},
		{Name: "current_balance", Type: bigquery.NumericFieldType, Required: true},
		{Name: "created_ts", Type: bigquery.TimestampFieldType, Required: true},
		{Name: "updated_ts", Type: bigquery.TimestampFieldType},
		{Name: "deleted_ts", Type: bigquery.TimestampFieldType},
	},
	"categories": {
		{Name: "category_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "name", Type: bigquery.StringFieldType, Required: true},
		{Name: "keywords", Type: bigquery.StringFieldType, Repeated: true},
		{Name: "is_active", Type: bigquery.BooleanFieldType, Required: true},
	},
}

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()

	location := flag.String("location", "EU", "BigQuery dataset location, used only on first creation")
	flag.Parse()

	if cfg.ProjectID == "" {
		log.Fatal().Msg("BQ_PROJECT is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	dataset := client.Dataset(cfg.DatasetID)
	err = dataset.Create(ctx, &bigquery.DatasetMetadata{Location: *location})
	switch {
	case err == nil:
		log.Info().Str("dataset", cfg.DatasetID).Str("location", *location).Msg("Dataset created")
	case alreadyExists(err):
		log.Info().Str("dataset", cfg.DatasetID).Msg("Dataset exists")
	default:
		log.Fatal().Err(err).Str("dataset", cfg.DatasetID).Msg("Failed to create dataset")
	}

	var created int
	for name, schema := range tableSchemas {
		err := dataset.Table(name).Create(ctx, &bigquery.TableMetadata{Schema: schema})
		switch {
		case err == nil:
			log.Info().Str("table", name).Msg("Table created")
			created++
		case alreadyExists(err):
			log.Info().Str("table", name).Msg("Table exists")
		default:
			log.Fatal().Err(err).Str("table", name).Msg("Failed to create table")
		}
	}

	if created == 0 {
		log.Info().Msg("Schema is up to date")
	} else {
		log.Info().Int("created", created).Msg("Schema migration done")
	}
}

func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
