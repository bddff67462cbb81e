package repository

import (
	"context"
	"fmt"
	"strings"

	"database/sql"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

// CatalogRepository reads the majors/careers display data referenced by
// bookmarks.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListByRefs returns the catalog rows matching the given refs. Refs with
// no matching row are simply absent from the response.
func (r *CatalogRepository) ListByRefs(ctx context.Context, refs []models.ItemRef) ([]models.CatalogRecord, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(refs))
	args := make([]any, 0, len(refs)*2)
	for i, ref := range refs {
		placeholders[i] = "(kind = ? AND id = ?)"
		args = append(args, ref.ItemType, ref.ItemID)
	}

	query := fmt.Sprintf(
		`SELECT id, kind, name, description FROM catalog_items WHERE %s`,
		strings.Join(placeholders, " OR "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer rows.Close()

	var out []models.CatalogRecord
	for rows.Next() {
		var rec models.CatalogRecord
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Name, &rec.Description); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog items: %w", err)
	}
	return out, nil
}
