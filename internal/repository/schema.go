package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the durable store layout. Score vectors and raw answers are
// stored as JSON text; result rows are insert-only.
const Schema = `
CREATE TABLE IF NOT EXISTS assessment_results (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	scores TEXT NOT NULL,
	dominant TEXT NOT NULL,
	secondary TEXT NOT NULL,
	tertiary TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	total_questions INTEGER NOT NULL,
	raw_answers TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessment_results_owner
	ON assessment_results (owner_id, completed_at DESC);

CREATE TABLE IF NOT EXISTS bookmarks (
	owner_id TEXT NOT NULL,
	item_type TEXT NOT NULL,
	item_id INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (owner_id, item_type, item_id)
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id TEXT PRIMARY KEY,
	name TEXT,
	school TEXT,
	grade TEXT,
	phone TEXT
);

CREATE TABLE IF NOT EXISTS catalog_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
`

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
