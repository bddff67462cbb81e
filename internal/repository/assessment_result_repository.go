package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

type AssessmentResultRepository struct {
	db *sql.DB
}

func NewAssessmentResultRepository(db *sql.DB) *AssessmentResultRepository {
	return &AssessmentResultRepository{db: db}
}

// Insert writes a new result row. Rows are never updated afterwards.
func (r *AssessmentResultRepository) Insert(ctx context.Context, rec models.AssessmentResultRecord) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	answers, err := json.Marshal(rec.RawAnswers)
	if err != nil {
		return fmt.Errorf("marshal raw answers: %w", err)
	}

	const query = `
		INSERT INTO assessment_results
			(id, owner_id, scores, dominant, secondary, tertiary, completed_at, duration_seconds, total_questions, raw_answers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerID, string(scores),
		rec.Dominant, rec.Secondary, rec.Tertiary,
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
		rec.DurationSeconds, rec.TotalQuestions, string(answers))
	if err != nil {
		return fmt.Errorf("insert assessment result: %w", err)
	}
	return nil
}

// ListByOwner returns all results for an owner, newest first.
func (r *AssessmentResultRepository) ListByOwner(ctx context.Context, owner string) ([]models.AssessmentResultRecord, error) {
	const query = `
		SELECT id, owner_id, scores, dominant, secondary, tertiary, completed_at, duration_seconds, total_questions, raw_answers
		FROM assessment_results
		WHERE owner_id = ?
		ORDER BY completed_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query ListByOwner: %w", err)
	}
	defer rows.Close()

	var results []models.AssessmentResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ListByOwner row: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListByOwner: %w", err)
	}
	return results, nil
}

// GetByID returns a single result row, or models.ErrNotFound.
func (r *AssessmentResultRepository) GetByID(ctx context.Context, id string) (models.AssessmentResultRecord, error) {
	const query = `
		SELECT id, owner_id, scores, dominant, secondary, tertiary, completed_at, duration_seconds, total_questions, raw_answers
		FROM assessment_results
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)
	rec, err := scanResult(row)
	if err == sql.ErrNoRows {
		return models.AssessmentResultRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.AssessmentResultRecord{}, fmt.Errorf("query GetByID: %w", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (models.AssessmentResultRecord, error) {
	var (
		rec         models.AssessmentResultRecord
		scores      string
		answers     string
		completedAt string
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &scores,
		&rec.Dominant, &rec.Secondary, &rec.Tertiary,
		&completedAt, &rec.DurationSeconds, &rec.TotalQuestions, &answers)
	if err != nil {
		return models.AssessmentResultRecord{}, err
	}

	if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
		return models.AssessmentResultRecord{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &rec.RawAnswers); err != nil {
		return models.AssessmentResultRecord{}, fmt.Errorf("unmarshal raw answers: %w", err)
	}
	rec.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt)
	if err != nil {
		return models.AssessmentResultRecord{}, fmt.Errorf("parse completed_at: %w", err)
	}
	return rec, nil
}
