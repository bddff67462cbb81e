package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist. Owner
// mismatches surface as the same error so lookups never confirm foreign ids.
var ErrNotFound = errors.New("record not found")

// Item kinds a bookmark or catalog row can reference.
const (
	ItemTypeMajor  = "major"
	ItemTypeCareer = "career"
)

// ItemRef identifies a catalog item by kind and id.
type ItemRef struct {
	ItemType string
	ItemID   int64
}

// AnswerRecord is one raw Likert answer as stored with a result.
type AnswerRecord struct {
	QuestionID int `json:"question_id"`
	Value      int `json:"value"`
}

// AssessmentResultRecord is a persisted assessment outcome. Rows are
// insert-only; scores never change after submission.
type AssessmentResultRecord struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"owner_id"`
	Scores          map[string]int `json:"scores"`
	Dominant        string         `json:"dominant"`
	Secondary       string         `json:"secondary"`
	Tertiary        string         `json:"tertiary"`
	CompletedAt     time.Time      `json:"completed_at"`
	DurationSeconds int            `json:"duration_seconds"`
	TotalQuestions  int            `json:"total_questions"`
	RawAnswers      []AnswerRecord `json:"raw_answers"`
}

// BookmarkRecord is a saved major/career reference. For a given owner,
// (ItemType, ItemID) appears at most once per store.
type BookmarkRecord struct {
	Owner     string    `json:"owner"`
	ItemType  string    `json:"item_type"`
	ItemID    int64     `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogRecord holds display data for a major or career.
type CatalogRecord struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProfileRecord carries the fixed profile fields that feed the dashboard
// completion percentage. Nil means the user never filled the field.
type ProfileRecord struct {
	UserID string
	Name   *string
	School *string
	Grade  *string
	Phone  *string
}
