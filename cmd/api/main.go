package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nkoval/finledger/internal/api/handlers"
	"github.com/nkoval/finledger/internal/api/middleware"
	"github.com/nkoval/finledger/internal/categorize"
	"github.com/nkoval/finledger/internal/config"
	"github.com/nkoval/finledger/internal/gcstore"
	infraBQ "github.com/nkoval/finledger/internal/infra/bigquery"
	"github.com/nkoval/finledger/internal/ingest"
	"github.com/nkoval/finledger/internal/logger"
)

func main() {
	// Load .env for local development; absent in deployment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New()

	if cfg.ProjectID == "" {
		log.Fatal().Msg("BQ_PROJECT is required")
	}
	if cfg.Bucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
	}

	ctx := context.Background()

	store, err := infraBQ.NewStore(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer store.Close()

	blobs, err := gcstore.New(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer blobs.Close()

	// Category rules: an explicit YAML file beats the BigQuery taxonomy,
	// which beats the compiled-in defaults.
	rules := categorize.DefaultRules()
	if cfg.CategoryRulesPath != "" {
		rules, err = categorize.LoadRules(cfg.CategoryRulesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CategoryRulesPath).Msg("Failed to load category rules")
		}
	} else if rows, err := store.ListCategories(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load category taxonomy, using built-in rules")
	} else if len(rows) > 0 {
		rules = categoryRules(rows)
	}

	var model categorize.ModelClient
	if cfg.CategoryAIEnabled() {
		model = categorize.NewGeminiClient(cfg.CategoryModel)
		log.Info().Str("model", cfg.CategoryModel).Msg("Category model fallback enabled")
	}
	engine := categorize.NewEngine(rules, model, log)

	svc := ingest.NewService(store.Uploads(), store.Ledger(), store.Accounts(), blobs, engine, log)

	// Initialize handlers
	statementsHandler := handlers.NewStatementsHandler(svc, blobs, log)
	transactionsHandler := handlers.NewTransactionsHandler(store.Ledger(), log)
	accountsHandler := handlers.NewAccountsHandler(store.Accounts(), log)

	// Create router
	mux := http.NewServeMux()

	// Statements endpoints
	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			statementsHandler.UploadStatement(w, r)
		case http.MethodGet:
			statementsHandler.ListStatements(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/statements/"), "/")
		parts := strings.Split(rest, "/")

		switch {
		case len(parts) == 1 && parts[0] != "":
			if r.Method == http.MethodGet {
				statementsHandler.GetStatement(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && parts[1] == "parse":
			if r.Method == http.MethodPost {
				statementsHandler.ParseStatement(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && parts[1] == "candidates":
			if r.Method == http.MethodGet {
				statementsHandler.ListCandidates(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 3 && parts[1] == "candidates":
			if r.Method == http.MethodPatch {
				statementsHandler.EditCandidate(w, r, parts[0], parts[2])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		case len(parts) == 2 && parts[1] == "confirm":
			if r.Method == http.MethodPost {
				statementsHandler.ConfirmStatement(w, r, parts[0])
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Accounts endpoints
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.ListAccounts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// categoryRules maps the stored taxonomy onto categorizer rules.
func categoryRules(rows []infraBQ.CategoryRow) []categorize.Rule {
	rules := make([]categorize.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, categorize.Rule{Name: row.Name, Keywords: row.Keywords})
	}
	return rules
}
