package config

import "os"

// Defaults for values that are safe to assume in local development.
const (
	DefaultPort    = "8080"
	DefaultDataset = "finledger"

	// DefaultCategoryModel is the Gemini model used for category fallback.
	DefaultCategoryModel = "gemini-2.5-flash"
)

// Config carries everything the binaries read from the environment.
// Binaries validate the subset they actually need and fail fast on gaps.
type Config struct {
	// Port is the HTTP listen port for the API server.
	Port string

	// ProjectID and DatasetID locate the BigQuery dataset.
	ProjectID string
	DatasetID string

	// Bucket is the GCS bucket holding uploaded statement files.
	Bucket string

	// CategoryRulesPath optionally points at a YAML keyword-rules file;
	// empty means the compiled-in defaults.
	CategoryRulesPath string

	// CategoryModel is the Gemini model for the category fallback. The
	// fallback stays off unless an API key is present in the environment.
	CategoryModel   string
	GeminiAPIKey    string
	NotionToken     string
	NotionDatabase  string
}

// Load reads the environment. Call godotenv.Load first in binaries that
// want .env support.
func Load() *Config {
	return &Config{
		Port:              getenv("PORT", DefaultPort),
		ProjectID:         os.Getenv("BQ_PROJECT"),
		DatasetID:         getenv("BQ_DATASET", DefaultDataset),
		Bucket:            os.Getenv("GCS_BUCKET"),
		CategoryRulesPath: os.Getenv("CATEGORY_RULES"),
		CategoryModel:     getenv("CATEGORY_MODEL", DefaultCategoryModel),
		GeminiAPIKey:      getenv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		NotionToken:       os.Getenv("NOTION_TOKEN"),
		NotionDatabase:    os.Getenv("NOTION_TRANSACTIONS_DB"),
	}
}

// CategoryAIEnabled reports whether the Gemini category fallback can run.
func (c *Config) CategoryAIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
