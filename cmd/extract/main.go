// Command extract runs the statement extractors against a local file and
// prints the candidates it finds. Nothing is persisted; this is the tool for
// checking how a new bank's export parses before uploading it through the
// API.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkoval/finledger/internal/ingest"
	"github.com/nkoval/finledger/internal/logger"
	"github.com/nkoval/finledger/internal/pdftext"
)

func main() {
	log := logger.New()

	file := flag.String("file", "", "Path to a statement file (required)")
	kindFlag := flag.String("kind", "", "Source kind, csv or pdf; default inferred from the extension")
	text := flag.Bool("text", false, "For PDFs, print the recovered text instead of candidates")
	flag.Parse()

	if *file == "" {
		log.Fatal().Msg("--file is required")
	}

	kind := ingest.SourceKind(strings.ToLower(*kindFlag))
	if kind == "" {
		if strings.EqualFold(filepath.Ext(*file), ".pdf") {
			kind = ingest.KindPDF
		} else {
			kind = ingest.KindCSV
		}
	}
	if !kind.Valid() {
		log.Fatal().Str("kind", string(kind)).Msg("Unsupported kind, want csv or pdf")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read file")
	}

	var result ingest.ExtractResult
	switch kind {
	case ingest.KindPDF:
		recovered, err := pdftext.Extract(data)
		if err != nil {
			log.Fatal().Err(err).Str("file", *file).Msg("Failed to recover text from PDF")
		}
		if *text {
			os.Stdout.WriteString(recovered + "\n")
			return
		}
		result = ingest.ExtractFreeText(recovered)
	default:
		result = ingest.ExtractTabular(string(data))
	}

	log.Info().
		Str("file", *file).
		Str("kind", string(kind)).
		Int("candidates", len(result.Candidates)).
		Int("skipped_rows", result.Skipped).
		Msg("Extraction finished")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Candidates); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode candidates")
	}
}
