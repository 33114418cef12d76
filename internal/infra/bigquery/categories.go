package bigquery

type CategoryRow struct {
	CategoryID string `bigquery:"category_id"` // REQUIRED

	Name     string   `bigquery:"name"`     // REQUIRED
	Keywords []string `bigquery:"keywords"` // REPEATED STRING

	IsActive bool `bigquery:"is_active"` // REQUIRED
}
