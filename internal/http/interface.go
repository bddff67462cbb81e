package http

import (
	"context"

	"github.com/careerlens/assessment-server/internal/service"
)

// SubmissionService is the result persistence surface the handlers need.
type SubmissionService interface {
	SaveGuestResult(ctx context.Context, token, userID string) (service.PersistedResultRef, error)
	GetResult(ctx context.Context, id, userID string) (service.Result, error)
}

// DashboardService is the aggregation surface the handlers need.
type DashboardService interface {
	BuildDashboard(ctx context.Context, userID, guestToken string) (service.DashboardSnapshot, error)
	ToggleBookmark(ctx context.Context, owner string, durable bool, itemType string, itemID int64) (bool, error)
}
