package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository/memory"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestDashboardService_StatsCache(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAnalyticsRepository)
	cache := redis.NewMemoryClient()
	svc := NewDashboardService(repo, memory.NewStore().Goals(), cache, time.Minute)

	totals := models.LedgerTotals{TotalUsers: 3, CoinsEarned: 150, CoinsSpent: 20, CoinsInCirculation: 130}
	repo.On("Totals", mock.Anything).Return(totals, nil).Once()

	first, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, totals, first)

	second, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, totals, second)
	repo.AssertNumberOfCalls(t, "Totals", 1)

	cached, err := cache.Get(ctx, statsCacheKey)
	require.NoError(t, err)
	var decoded models.LedgerTotals
	require.NoError(t, json.Unmarshal([]byte(cached), &decoded))
	assert.Equal(t, int64(130), decoded.CoinsInCirculation)
}

func TestDashboardService_Limits(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAnalyticsRepository)
	svc := NewDashboardService(repo, memory.NewStore().Goals(), redis.NewMemoryClient(), time.Minute)

	repo.On("RecentActivity", mock.Anything, defaultActivityLimit).Return([]models.ActivityItem{}, nil).Once()
	repo.On("RecentActivity", mock.Anything, maxActivityLimit).Return([]models.ActivityItem{}, nil).Once()
	repo.On("TopBalances", mock.Anything, defaultTopLimit).Return([]models.TopPerformer{}, nil).Once()

	_, err := svc.ActivityFeed(ctx, 0)
	require.NoError(t, err)
	_, err = svc.ActivityFeed(ctx, 5000)
	require.NoError(t, err)
	_, err = svc.TopPerformers(ctx, -1)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDashboardService_RevenueBreakdown(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAnalyticsRepository)
	svc := NewDashboardService(repo, memory.NewStore().Goals(), redis.NewMemoryClient(), time.Minute)
	svc.now = func() time.Time { return fixedNow }

	repo.On("SourceTotals", mock.Anything, fixedNow.Add(-30*24*time.Hour)).
		Return([]models.SourceTotal{{Source: "manual", Amount: 25}, {Source: "login", Amount: 75}}, nil)

	got, err := svc.RevenueBreakdown(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Total)
	assert.Equal(t, "login", got.Sources[0].Source)
	assert.Equal(t, 75.0, got.Sources[0].Percentage)

	repo.On("SourceTotals", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	_, err = svc.RevenueBreakdown(ctx, 7)
	assert.Error(t, err)
}

func TestDashboardService_ForecastWindow(t *testing.T) {
	ctx := context.Background()
	repo := new(mockAnalyticsRepository)
	svc := NewDashboardService(repo, memory.NewStore().Goals(), redis.NewMemoryClient(), time.Minute)
	svc.now = func() time.Time { return fixedNow }

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	repo.On("DailyNet", mock.Anything, from).Return([]models.DailyPoint{{Date: from, Value: 70}}, nil)

	f, err := svc.Forecast(ctx, 7, 3)
	require.NoError(t, err)
	assert.Len(t, f.History, 7)
	assert.Len(t, f.Forecast, 3)
	assert.Equal(t, 70.0, f.History[0].Value)
}

func TestDashboardService_Goals(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewDashboardService(store.Analytics(), store.Goals(), redis.NewMemoryClient(), time.Minute)

	t.Run("Validation", func(t *testing.T) {
		bad := []models.Goal{
			{Name: "", Metric: models.MetricNewUsers, Target: 1, Period: models.PeriodDaily},
			{Name: "x", Metric: "revenue", Target: 1, Period: models.PeriodDaily},
			{Name: "x", Metric: models.MetricNewUsers, Target: 1, Period: "yearly"},
			{Name: "x", Metric: models.MetricNewUsers, Target: 0, Period: models.PeriodDaily},
		}
		for _, g := range bad {
			g := g
			assert.ErrorIs(t, svc.CreateGoal(ctx, &g), pkgerrors.ErrInvalidGoal)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		for _, email := range []string{"a@example.com", "b@example.com"} {
			require.NoError(t, store.Users().Create(ctx, &models.User{Email: email, FullName: email, IsPremiumMember: true}))
		}
		require.NoError(t, svc.CreateGoal(ctx, &models.Goal{Name: "Signups", Metric: models.MetricNewUsers, Target: 4, Period: models.PeriodDaily}))
		require.NoError(t, svc.CreateGoal(ctx, &models.Goal{Name: "Premium", Metric: models.MetricPremiumMembers, Target: 2, Period: models.PeriodMonthly}))

		report, err := svc.Goals(ctx)
		require.NoError(t, err)
		require.Len(t, report.Goals, 2)
		assert.Equal(t, int64(2), report.Goals[0].Current)
		assert.Equal(t, 50.0, report.Goals[0].Progress)
		assert.True(t, report.Goals[1].Achieved)
		assert.Equal(t, models.Achievements{Achieved: 1, Total: 2}, report.Achievements)
	})
}

func TestDashboardService_Cohorts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewDashboardService(store.Analytics(), store.Goals(), redis.NewMemoryClient(), time.Minute)
	ledger := NewLedgerService(store.Transactions(), nil, "t")

	u := &models.User{Email: "ann@example.com", FullName: "Ann"}
	require.NoError(t, store.Users().Create(ctx, u))
	_, err := ledger.RecordTransaction(ctx, &models.CoinTransaction{UserID: u.ID, Amount: 5})
	require.NoError(t, err)

	got, err := svc.Cohorts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got.Cohorts, 1)
	assert.Equal(t, 1, got.Cohorts[0].Size)
	assert.Equal(t, 100.0, got.Cohorts[0].Retention[0])
	assert.Equal(t, 1, got.Summary.TotalUsers)
}
