package repository

import (
	"context"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

// AnalyticsRepository exposes the raw reads the dashboard read-model is computed from.
type AnalyticsRepository interface {
	Totals(ctx context.Context) (models.LedgerTotals, error)
	QuickStats(ctx context.Context, since time.Time) (models.QuickStats, error)
	RecentActivity(ctx context.Context, limit int) ([]models.ActivityItem, error)
	TopBalances(ctx context.Context, limit int) ([]models.TopPerformer, error)
	SourceTotals(ctx context.Context, since time.Time) ([]models.SourceTotal, error)
	// DailyNet returns the net ledger movement per UTC day from since; days without rows are omitted.
	DailyNet(ctx context.Context, since time.Time) ([]models.DailyPoint, error)
	Signups(ctx context.Context, since time.Time) ([]models.UserSignup, error)
	Activity(ctx context.Context, since time.Time) ([]models.UserActivity, error)
	NegativeBalanceUsers(ctx context.Context) (int64, error)
}
