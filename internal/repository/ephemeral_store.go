package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/careerlens/assessment-server/internal/repository/models"
	"github.com/careerlens/assessment-server/pkg/cache"
)

// KV is the key-value surface the ephemeral stores need. *cache.Cache
// satisfies it; tests substitute an in-memory fake.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	HSet(ctx context.Context, key, field string, value any) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HExists(ctx context.Context, key, field string) (bool, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

const (
	guestResultKeyPrefix   = "guest:result:"
	localBookmarkKeyPrefix = "local:bookmarks:"
)

// EphemeralResultStore holds one computed result per guest session token.
// Slots expire on their own; promotion to durable storage clears them.
type EphemeralResultStore struct {
	kv KV
}

func NewEphemeralResultStore(kv KV) *EphemeralResultStore {
	return &EphemeralResultStore{kv: kv}
}

func (s *EphemeralResultStore) Put(ctx context.Context, token string, rec models.AssessmentResultRecord, ttl time.Duration) error {
	if err := s.kv.Set(ctx, guestResultKeyPrefix+token, rec, ttl); err != nil {
		return fmt.Errorf("set guest result slot: %w", err)
	}
	return nil
}

func (s *EphemeralResultStore) Get(ctx context.Context, token string) (models.AssessmentResultRecord, error) {
	var rec models.AssessmentResultRecord
	err := s.kv.Get(ctx, guestResultKeyPrefix+token, &rec)
	if errors.Is(err, cache.ErrMiss) {
		return models.AssessmentResultRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.AssessmentResultRecord{}, fmt.Errorf("get guest result slot: %w", err)
	}
	return rec, nil
}

func (s *EphemeralResultStore) Delete(ctx context.Context, token string) error {
	if err := s.kv.Del(ctx, guestResultKeyPrefix+token); err != nil {
		return fmt.Errorf("delete guest result slot: %w", err)
	}
	return nil
}

// LocalBookmarkStore is the client-scoped bookmark store, kept as one hash
// per owner token. It satisfies the same contract as the durable
// BookmarkRepository so the aggregator can union the two.
type LocalBookmarkStore struct {
	kv KV
}

func NewLocalBookmarkStore(kv KV) *LocalBookmarkStore {
	return &LocalBookmarkStore{kv: kv}
}

func bookmarkField(itemType string, itemID int64) string {
	return fmt.Sprintf("%s:%d", itemType, itemID)
}

func (s *LocalBookmarkStore) List(ctx context.Context, owner string) ([]models.BookmarkRecord, error) {
	fields, err := s.kv.HGetAll(ctx, localBookmarkKeyPrefix+owner)
	if err != nil {
		return nil, fmt.Errorf("list local bookmarks: %w", err)
	}

	out := make([]models.BookmarkRecord, 0, len(fields))
	for _, raw := range fields {
		var rec models.BookmarkRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode local bookmark: %w", err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if out[i].ItemType != out[j].ItemType {
			return out[i].ItemType < out[j].ItemType
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (s *LocalBookmarkStore) Has(ctx context.Context, owner, itemType string, itemID int64) (bool, error) {
	ok, err := s.kv.HExists(ctx, localBookmarkKeyPrefix+owner, bookmarkField(itemType, itemID))
	if err != nil {
		return false, fmt.Errorf("check local bookmark: %w", err)
	}
	return ok, nil
}

func (s *LocalBookmarkStore) Add(ctx context.Context, rec models.BookmarkRecord) error {
	err := s.kv.HSet(ctx, localBookmarkKeyPrefix+rec.Owner, bookmarkField(rec.ItemType, rec.ItemID), rec)
	if err != nil {
		return fmt.Errorf("add local bookmark: %w", err)
	}
	return nil
}

func (s *LocalBookmarkStore) Remove(ctx context.Context, owner, itemType string, itemID int64) error {
	err := s.kv.HDel(ctx, localBookmarkKeyPrefix+owner, bookmarkField(itemType, itemID))
	if err != nil {
		return fmt.Errorf("remove local bookmark: %w", err)
	}
	return nil
}
