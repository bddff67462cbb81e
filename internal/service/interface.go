package service

import (
	"context"
	"time"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

// AssessmentResultRepository is the durable store for assessment results.
// ListByOwner returns rows ordered by completion time descending.
type AssessmentResultRepository interface {
	Insert(ctx context.Context, rec models.AssessmentResultRecord) error
	ListByOwner(ctx context.Context, owner string) ([]models.AssessmentResultRecord, error)
	GetByID(ctx context.Context, id string) (models.AssessmentResultRecord, error)
}

// BookmarkRepository is one bookmark store. The durable (server-side) and
// local (client-scoped) stores implement the same contract so the
// aggregator can union them generically.
type BookmarkRepository interface {
	List(ctx context.Context, owner string) ([]models.BookmarkRecord, error)
	Has(ctx context.Context, owner, itemType string, itemID int64) (bool, error)
	Add(ctx context.Context, rec models.BookmarkRecord) error
	Remove(ctx context.Context, owner, itemType string, itemID int64) error
}

// ProfileRepository reads the fixed profile fields for a user.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (models.ProfileRecord, error)
}

// CatalogRepository resolves major/career display data for bookmark refs.
type CatalogRepository interface {
	ListByRefs(ctx context.Context, refs []models.ItemRef) ([]models.CatalogRecord, error)
}

// EphemeralResultStore holds at most one computed result per guest session
// token, expiring after a TTL.
type EphemeralResultStore interface {
	Put(ctx context.Context, token string, rec models.AssessmentResultRecord, ttl time.Duration) error
	Get(ctx context.Context, token string) (models.AssessmentResultRecord, error)
	Delete(ctx context.Context, token string) error
}

// Submitter routes a computed outcome to its persistence destination.
type Submitter interface {
	Submit(ctx context.Context, outcome Outcome, dest Destination) (PersistedResultRef, error)
}
