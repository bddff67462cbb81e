package service

import (
	"time"

	"github.com/careerlens/assessment-server/internal/questionbank"
)

// Answer is one Likert response, keyed by question id. Re-answering a
// question overwrites the previous value.
type Answer struct {
	QuestionID int `json:"question_id"`
	Value      int `json:"value"`
}

// ScoreVector maps every category to its accumulated total. All six
// categories are always present, untouched ones at zero.
type ScoreVector map[questionbank.Category]int

// HollandCode is the ranked top-three interest categories.
type HollandCode struct {
	Dominant  questionbank.Category `json:"dominant"`
	Secondary questionbank.Category `json:"secondary"`
	Tertiary  questionbank.Category `json:"tertiary"`
}

// Outcome is a fully computed assessment: the score vector, the ranked
// code, and the submission metadata that travels with them.
type Outcome struct {
	Vector          ScoreVector `json:"vector"`
	Code            HollandCode `json:"code"`
	TotalQuestions  int         `json:"total_questions"`
	DurationSeconds int         `json:"duration_seconds"`
	Answers         []Answer    `json:"answers"`
}

// Destination selects where a computed outcome is persisted: a durable
// record owned by a user, or the ephemeral slot of a guest session.
type Destination struct {
	userID string
	token  string
}

func DurableDestination(userID string) Destination {
	return Destination{userID: userID}
}

func EphemeralDestination(token string) Destination {
	return Destination{token: token}
}

// Durable reports whether the destination is the durable store.
func (d Destination) Durable() bool { return d.userID != "" }

func (d Destination) UserID() string { return d.userID }
func (d Destination) Token() string  { return d.token }

// PersistedResultRef identifies a stored outcome and which store holds it.
type PersistedResultRef struct {
	ID      string `json:"id"`
	Durable bool   `json:"durable"`
}

// Result is a persisted assessment outcome with typed categories.
type Result struct {
	ID              string      `json:"id"`
	Owner           string      `json:"owner"`
	Vector          ScoreVector `json:"vector"`
	Code            HollandCode `json:"code"`
	CompletedAt     time.Time   `json:"completed_at"`
	DurationSeconds int         `json:"duration_seconds"`
	TotalQuestions  int         `json:"total_questions"`
	Answers         []Answer    `json:"answers"`
}

// SavedItem is a bookmark merged from the durable and local stores and
// annotated with catalog display data when available.
type SavedItem struct {
	ItemType    string    `json:"item_type"`
	ItemID      int64     `json:"item_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// DashboardSnapshot is the derived dashboard aggregate. It is recomputed
// on every call and never cached across requests.
type DashboardSnapshot struct {
	Latest                 *Result     `json:"latest,omitempty"`
	Recent                 []Result    `json:"recent"`
	TotalAssessments       int         `json:"total_assessments"`
	TotalAssessmentsGrowth int         `json:"total_assessments_growth"`
	ProfileCompletion      int         `json:"profile_completion"`
	SavedItems             []SavedItem `json:"saved_items"`
}
