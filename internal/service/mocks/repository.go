package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

// MockAssessmentResultRepository is a mock implementation of the
// AssessmentResultRepository interface for testing the service layer.
type MockAssessmentResultRepository struct {
	InsertFunc      func(ctx context.Context, rec models.AssessmentResultRecord) error
	ListByOwnerFunc func(ctx context.Context, owner string) ([]models.AssessmentResultRecord, error)
	GetByIDFunc     func(ctx context.Context, id string) (models.AssessmentResultRecord, error)
}

func (m *MockAssessmentResultRepository) Insert(ctx context.Context, rec models.AssessmentResultRecord) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, rec)
	}
	return errors.New("InsertFunc not implemented")
}

func (m *MockAssessmentResultRepository) ListByOwner(ctx context.Context, owner string) ([]models.AssessmentResultRecord, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, owner)
	}
	return nil, errors.New("ListByOwnerFunc not implemented")
}

func (m *MockAssessmentResultRepository) GetByID(ctx context.Context, id string) (models.AssessmentResultRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return models.AssessmentResultRecord{}, errors.New("GetByIDFunc not implemented")
}

// MockBookmarkRepository is a mock implementation of the BookmarkRepository
// interface usable as either the durable or the local store.
type MockBookmarkRepository struct {
	ListFunc   func(ctx context.Context, owner string) ([]models.BookmarkRecord, error)
	HasFunc    func(ctx context.Context, owner, itemType string, itemID int64) (bool, error)
	AddFunc    func(ctx context.Context, rec models.BookmarkRecord) error
	RemoveFunc func(ctx context.Context, owner, itemType string, itemID int64) error
}

func (m *MockBookmarkRepository) List(ctx context.Context, owner string) ([]models.BookmarkRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, owner)
	}
	return nil, errors.New("ListFunc not implemented")
}

func (m *MockBookmarkRepository) Has(ctx context.Context, owner, itemType string, itemID int64) (bool, error) {
	if m.HasFunc != nil {
		return m.HasFunc(ctx, owner, itemType, itemID)
	}
	return false, errors.New("HasFunc not implemented")
}

func (m *MockBookmarkRepository) Add(ctx context.Context, rec models.BookmarkRecord) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, rec)
	}
	return errors.New("AddFunc not implemented")
}

func (m *MockBookmarkRepository) Remove(ctx context.Context, owner, itemType string, itemID int64) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, owner, itemType, itemID)
	}
	return errors.New("RemoveFunc not implemented")
}

// MockProfileRepository is a mock implementation of the ProfileRepository
// interface.
type MockProfileRepository struct {
	GetFunc func(ctx context.Context, userID string) (models.ProfileRecord, error)
}

func (m *MockProfileRepository) Get(ctx context.Context, userID string) (models.ProfileRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return models.ProfileRecord{}, models.ErrNotFound
}

// MockCatalogRepository is a mock implementation of the CatalogRepository
// interface.
type MockCatalogRepository struct {
	ListByRefsFunc func(ctx context.Context, refs []models.ItemRef) ([]models.CatalogRecord, error)
}

func (m *MockCatalogRepository) ListByRefs(ctx context.Context, refs []models.ItemRef) ([]models.CatalogRecord, error) {
	if m.ListByRefsFunc != nil {
		return m.ListByRefsFunc(ctx, refs)
	}
	return nil, nil
}

// MockEphemeralResultStore is a mock implementation of the
// EphemeralResultStore interface.
type MockEphemeralResultStore struct {
	PutFunc    func(ctx context.Context, token string, rec models.AssessmentResultRecord, ttl time.Duration) error
	GetFunc    func(ctx context.Context, token string) (models.AssessmentResultRecord, error)
	DeleteFunc func(ctx context.Context, token string) error
}

func (m *MockEphemeralResultStore) Put(ctx context.Context, token string, rec models.AssessmentResultRecord, ttl time.Duration) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, token, rec, ttl)
	}
	return errors.New("PutFunc not implemented")
}

func (m *MockEphemeralResultStore) Get(ctx context.Context, token string) (models.AssessmentResultRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, token)
	}
	return models.AssessmentResultRecord{}, models.ErrNotFound
}

func (m *MockEphemeralResultStore) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	return nil
}
