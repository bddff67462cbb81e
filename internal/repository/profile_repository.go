package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the fixed profile fields for a user, or models.ErrNotFound
// when no profile row exists yet.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (models.ProfileRecord, error) {
	const query = `SELECT user_id, name, school, grade, phone FROM profiles WHERE user_id = ?`

	var (
		rec                        models.ProfileRecord
		name, school, grade, phone sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&rec.UserID, &name, &school, &grade, &phone)
	if err == sql.ErrNoRows {
		return models.ProfileRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.ProfileRecord{}, fmt.Errorf("query profile: %w", err)
	}

	rec.Name = nullable(name)
	rec.School = nullable(school)
	rec.Grade = nullable(grade)
	rec.Phone = nullable(phone)
	return rec, nil
}

// Upsert stores the profile fields, replacing any previous values.
func (r *ProfileRepository) Upsert(ctx context.Context, rec models.ProfileRecord) error {
	const query = `
		INSERT INTO profiles (user_id, name, school, grade, phone)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			school = excluded.school,
			grade = excluded.grade,
			phone = excluded.phone
	`
	_, err := r.db.ExecContext(ctx, query, rec.UserID, rec.Name, rec.School, rec.Grade, rec.Phone)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
