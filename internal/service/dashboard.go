package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/careerlens/assessment-server/internal/repository/models"
)

const (
	// SourceDurable and SourceLocal mark which store a merged bookmark
	// came from; durable wins when both stores hold the same item.
	SourceDurable = "durable"
	SourceLocal   = "local"

	recentResultLimit = 5
)

const profileFieldCount = 4

var ErrInvalidItemType = errors.New("invalid item type")

// DashboardService reconciles durable assessment history, durable and
// client-local bookmarks, and profile data into one dashboard snapshot.
// Nothing here is cached: every call reads the stores fresh.
type DashboardService struct {
	results          AssessmentResultRepository
	durableBookmarks BookmarkRepository
	localBookmarks   BookmarkRepository
	profiles         ProfileRepository
	catalog          CatalogRepository
	logger           *zap.Logger
	recentWindow     time.Duration
	now              func() time.Time
}

// NewDashboardService creates a new DashboardService instance. The two
// bookmark repositories implement the same contract; durable is the
// server-side store, local the client-scoped one.
func NewDashboardService(
	results AssessmentResultRepository,
	durableBookmarks BookmarkRepository,
	localBookmarks BookmarkRepository,
	profiles ProfileRepository,
	catalog CatalogRepository,
	recentWindowDays int,
	logger *zap.Logger,
) *DashboardService {
	if results == nil || durableBookmarks == nil || localBookmarks == nil || profiles == nil {
		panic("repositories must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	if recentWindowDays <= 0 {
		recentWindowDays = 30
	}
	return &DashboardService{
		results:          results,
		durableBookmarks: durableBookmarks,
		localBookmarks:   localBookmarks,
		profiles:         profiles,
		catalog:          catalog,
		logger:           logger,
		recentWindow:     time.Duration(recentWindowDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

// BuildDashboard assembles the snapshot for a user. guestToken, when
// present, names the client-local bookmark store to merge in; local reads
// are best-effort and never block the dashboard.
func (s *DashboardService) BuildDashboard(ctx context.Context, userID, guestToken string) (DashboardSnapshot, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		records  []models.AssessmentResultRecord
		durable  []models.BookmarkRecord
		local    []models.BookmarkRecord
		profile  models.ProfileRecord
	)

	g, gCtx := errgroup.WithContext(dbCtx)
	g.Go(func() error {
		var err error
		records, err = s.results.ListByOwner(gCtx, userID)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		durable, err = s.durableBookmarks.List(gCtx, userID)
		if err != nil {
			return fmt.Errorf("list durable bookmarks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profile, err = s.profiles.Get(gCtx, userID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("get profile: %w", err)
		}
		return nil
	})
	if guestToken != "" {
		g.Go(func() error {
			entries, err := s.localBookmarks.List(gCtx, guestToken)
			if err != nil {
				// Stale or unreachable local store is a documented,
				// non-fatal condition: merge proceeds without it.
				s.logger.Warn("local bookmarks unavailable, merging without them",
					zap.String("token", guestToken),
					zap.Error(err))
				return nil
			}
			local = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DashboardSnapshot{}, err
	}

	merged := mergeBookmarks(durable, local)
	items, err := s.annotate(dbCtx, merged)
	if err != nil {
		return DashboardSnapshot{}, err
	}

	now := s.now()
	snapshot := DashboardSnapshot{
		TotalAssessments:  len(records),
		ProfileCompletion: profileCompletion(profile),
		SavedItems:        items,
		Recent:            make([]Result, 0, recentResultLimit),
	}
	for i, rec := range records {
		if !rec.CompletedAt.Before(now.Add(-s.recentWindow)) {
			snapshot.TotalAssessmentsGrowth++
		}
		if i < recentResultLimit {
			snapshot.Recent = append(snapshot.Recent, recordToResult(rec))
		}
	}
	if len(snapshot.Recent) > 0 {
		latest := snapshot.Recent[0]
		snapshot.Latest = &latest
	}
	return snapshot, nil
}

// ToggleBookmark flips an item in the store owned by the identity: a user
// id routes to the durable store, a guest token to the local one. Returns
// whether the item is saved after the call.
func (s *DashboardService) ToggleBookmark(ctx context.Context, owner string, durable bool, itemType string, itemID int64) (bool, error) {
	if itemType != models.ItemTypeMajor && itemType != models.ItemTypeCareer {
		return false, ErrInvalidItemType
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	repo := s.localBookmarks
	if durable {
		repo = s.durableBookmarks
	}

	exists, err := repo.Has(dbCtx, owner, itemType, itemID)
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	if exists {
		if err := repo.Remove(dbCtx, owner, itemType, itemID); err != nil {
			return false, fmt.Errorf("remove bookmark: %w", err)
		}
		return false, nil
	}
	if err := repo.Add(dbCtx, models.BookmarkRecord{
		Owner:     owner,
		ItemType:  itemType,
		ItemID:    itemID,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return false, fmt.Errorf("add bookmark: %w", err)
	}
	return true, nil
}

// mergeBookmarks unions the two stores by (ItemType, ItemID) set
// semantics: no item is lost, none appears twice, and the durable record
// wins when both stores hold it.
func mergeBookmarks(durable, local []models.BookmarkRecord) []SavedItem {
	type key struct {
		itemType string
		itemID   int64
	}

	seen := make(map[key]bool, len(durable)+len(local))
	out := make([]SavedItem, 0, len(durable)+len(local))

	for _, b := range durable {
		k := key{b.ItemType, b.ItemID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, SavedItem{ItemType: b.ItemType, ItemID: b.ItemID, Source: SourceDurable, CreatedAt: b.CreatedAt})
	}
	for _, b := range local {
		k := key{b.ItemType, b.ItemID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, SavedItem{ItemType: b.ItemType, ItemID: b.ItemID, Source: SourceLocal, CreatedAt: b.CreatedAt})
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
	return out
}

// annotate fills in catalog display data for merged bookmarks. Items whose
// catalog row is gone keep their bare ids rather than dropping out.
func (s *DashboardService) annotate(ctx context.Context, items []SavedItem) ([]SavedItem, error) {
	if len(items) == 0 || s.catalog == nil {
		return items, nil
	}

	refs := make([]models.ItemRef, len(items))
	for i, it := range items {
		refs[i] = models.ItemRef{ItemType: it.ItemType, ItemID: it.ItemID}
	}
	rows, err := s.catalog.ListByRefs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("annotate bookmarks: %w", err)
	}

	display := make(map[models.ItemRef]models.CatalogRecord, len(rows))
	for _, r := range rows {
		display[models.ItemRef{ItemType: r.Kind, ItemID: r.ID}] = r
	}
	for i := range items {
		if r, ok := display[models.ItemRef{ItemType: items[i].ItemType, ItemID: items[i].ItemID}]; ok {
			items[i].Name = r.Name
			items[i].Description = r.Description
		}
	}
	return items, nil
}

// profileCompletion is the share of the fixed profile fields (name,
// school, grade, phone) that are filled, as a rounded percentage.
func profileCompletion(p models.ProfileRecord) int {
	filled := 0
	for _, f := range []*string{p.Name, p.School, p.Grade, p.Phone} {
		if f != nil && *f != "" {
			filled++
		}
	}
	return (filled*100 + profileFieldCount/2) / profileFieldCount
}
