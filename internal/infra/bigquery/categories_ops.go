package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"
)

// ListCategories returns the active category taxonomy ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT category_id, name, keywords, is_active
		FROM %s
		WHERE is_active = TRUE
		ORDER BY name
	`, s.table(categoriesTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var rows []CategoryRow
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
