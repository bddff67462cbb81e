package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

// BookmarkRepository is the durable (server-side) bookmark store. The
// client-local counterpart lives in LocalBookmarkStore; both satisfy the
// same service contract.
type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) List(ctx context.Context, owner string) ([]models.BookmarkRecord, error) {
	const query = `
		SELECT owner_id, item_type, item_id, created_at
		FROM bookmarks
		WHERE owner_id = ?
		ORDER BY created_at DESC, item_type, item_id
	`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []models.BookmarkRecord
	for rows.Next() {
		var (
			rec       models.BookmarkRecord
			createdAt string
		)
		if err := rows.Scan(&rec.Owner, &rec.ItemType, &rec.ItemID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bookmark row: %w", err)
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse bookmark created_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

func (r *BookmarkRepository) Has(ctx context.Context, owner, itemType string, itemID int64) (bool, error) {
	const query = `SELECT 1 FROM bookmarks WHERE owner_id = ? AND item_type = ? AND item_id = ?`

	var one int
	err := r.db.QueryRowContext(ctx, query, owner, itemType, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query bookmark existence: %w", err)
	}
	return true, nil
}

func (r *BookmarkRepository) Add(ctx context.Context, rec models.BookmarkRecord) error {
	// INSERT OR IGNORE keeps (owner, type, id) unique even under a racing
	// double toggle.
	const query = `
		INSERT OR IGNORE INTO bookmarks (owner_id, item_type, item_id, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.Owner, rec.ItemType, rec.ItemID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) Remove(ctx context.Context, owner, itemType string, itemID int64) error {
	const query = `DELETE FROM bookmarks WHERE owner_id = ? AND item_type = ? AND item_id = ?`
	if _, err := r.db.ExecContext(ctx, query, owner, itemType, itemID); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}
