package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stderrors "errors"

	"github.com/honeynil/CoinLedgerService/internal/analytics"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

const (
	statsCacheKey = "dashboard:stats"

	defaultActivityLimit = 10
	maxActivityLimit     = 100
	defaultTopLimit      = 5
	maxTopLimit          = 100
	defaultRevenueDays   = 30
	maxRevenueDays       = 365
	quickStatsWindow     = 24 * time.Hour
)

type DashboardService struct {
	analytics repository.AnalyticsRepository
	goals     repository.GoalRepository
	cache     redis.RedisClient
	statsTTL  time.Duration
	now       func() time.Time
}

func NewDashboardService(analyticsRepo repository.AnalyticsRepository, goals repository.GoalRepository, cache redis.RedisClient, statsTTL time.Duration) *DashboardService {
	return &DashboardService{
		analytics: analyticsRepo,
		goals:     goals,
		cache:     cache,
		statsTTL:  statsTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns ledger-wide totals, served from cache for statsTTL.
func (s *DashboardService) Stats(ctx context.Context) (models.LedgerTotals, error) {
	ctx, span := tracer.Start(ctx, "Stats")
	defer span.End()

	var totals models.LedgerTotals
	cached, err := s.cache.Get(ctx, statsCacheKey)
	if err == nil {
		if err := json.Unmarshal([]byte(cached), &totals); err == nil {
			return totals, nil
		}
		slog.Warn("discarding unreadable stats cache", "method", "Stats")
	} else if !stderrors.Is(err, redis.ErrKeyNotFound) {
		slog.Error("failed to read stats cache", "method", "Stats", "error", err)
	}

	totals, err = s.analytics.Totals(ctx)
	if err != nil {
		recordError(span, err, "totals failed")
		return totals, err
	}
	if payload, err := json.Marshal(totals); err == nil && s.statsTTL > 0 {
		if err := s.cache.Set(ctx, statsCacheKey, string(payload), s.statsTTL); err != nil {
			slog.Error("failed to cache stats", "method", "Stats", "error", err)
		}
	}
	return totals, nil
}

func (s *DashboardService) QuickStats(ctx context.Context) (models.QuickStats, error) {
	ctx, span := tracer.Start(ctx, "QuickStats")
	defer span.End()

	q, err := s.analytics.QuickStats(ctx, s.now().Add(-quickStatsWindow))
	if err != nil {
		recordError(span, err, "quick stats failed")
	}
	return q, err
}

func (s *DashboardService) ActivityFeed(ctx context.Context, limit int) ([]models.ActivityItem, error) {
	ctx, span := tracer.Start(ctx, "ActivityFeed")
	defer span.End()

	items, err := s.analytics.RecentActivity(ctx, clampLimit(limit, defaultActivityLimit, maxActivityLimit))
	if err != nil {
		recordError(span, err, "activity failed")
	}
	return items, err
}

func (s *DashboardService) TopPerformers(ctx context.Context, limit int) ([]models.TopPerformer, error) {
	ctx, span := tracer.Start(ctx, "TopPerformers")
	defer span.End()

	top, err := s.analytics.TopBalances(ctx, clampLimit(limit, defaultTopLimit, maxTopLimit))
	if err != nil {
		recordError(span, err, "top performers failed")
	}
	return top, err
}

func (s *DashboardService) RevenueBreakdown(ctx context.Context, days int) (models.RevenueBreakdown, error) {
	ctx, span := tracer.Start(ctx, "RevenueBreakdown")
	defer span.End()

	days = clampLimit(days, defaultRevenueDays, maxRevenueDays)
	totals, err := s.analytics.SourceTotals(ctx, s.now().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		recordError(span, err, "source totals failed")
		return models.RevenueBreakdown{}, err
	}
	return analytics.RevenueBreakdown(totals), nil
}

func (s *DashboardService) Forecast(ctx context.Context, lookback, horizon int) (models.Forecast, error) {
	ctx, span := tracer.Start(ctx, "Forecast")
	defer span.End()

	lookback = clampLimit(lookback, analytics.DefaultLookbackDays, analytics.MaxLookbackDays)
	horizon = clampLimit(horizon, analytics.DefaultHorizonDays, analytics.MaxHorizonDays)
	from := analytics.StartOfDay(s.now()).AddDate(0, 0, -(lookback - 1))

	points, err := s.analytics.DailyNet(ctx, from)
	if err != nil {
		recordError(span, err, "daily totals failed")
		return models.Forecast{}, err
	}
	return analytics.Forecast(points, from, lookback, horizon), nil
}

func (s *DashboardService) Cohorts(ctx context.Context, weeks int) (models.CohortAnalysis, error) {
	ctx, span := tracer.Start(ctx, "Cohorts")
	defer span.End()

	now := s.now()
	since := analytics.CohortSince(now, clampLimit(weeks, analytics.DefaultCohortWeeks, analytics.MaxCohortWeeks))
	signups, err := s.analytics.Signups(ctx, since)
	if err != nil {
		recordError(span, err, "signups failed")
		return models.CohortAnalysis{}, err
	}
	activity, err := s.analytics.Activity(ctx, since)
	if err != nil {
		recordError(span, err, "activity failed")
		return models.CohortAnalysis{}, err
	}
	return analytics.Cohorts(signups, activity, now), nil
}

// Goals evaluates every goal against its current period.
func (s *DashboardService) Goals(ctx context.Context) (models.GoalReport, error) {
	ctx, span := tracer.Start(ctx, "Goals")
	defer span.End()

	goals, err := s.goals.List(ctx)
	if err != nil {
		recordError(span, err, "list goals failed")
		return models.GoalReport{}, err
	}

	now := s.now()
	window := make(map[models.GoalPeriod]models.QuickStats)
	var totals *models.LedgerTotals
	progress := make([]models.GoalProgress, 0, len(goals))
	for _, g := range goals {
		var current int64
		if g.Metric == models.MetricPremiumMembers {
			if totals == nil {
				t, err := s.analytics.Totals(ctx)
				if err != nil {
					recordError(span, err, "totals failed")
					return models.GoalReport{}, err
				}
				totals = &t
			}
			current = totals.PremiumUsers
		} else {
			q, ok := window[g.Period]
			if !ok {
				q, err = s.analytics.QuickStats(ctx, analytics.PeriodStart(g.Period, now))
				if err != nil {
					recordError(span, err, "period stats failed")
					return models.GoalReport{}, err
				}
				window[g.Period] = q
			}
			current = metricValue(g.Metric, q)
		}
		progress = append(progress, analytics.Progress(g, current))
	}
	return analytics.Report(progress), nil
}

func metricValue(m models.GoalMetric, q models.QuickStats) int64 {
	switch m {
	case models.MetricCoinsAwarded:
		return q.CoinsAwarded
	case models.MetricNewUsers:
		return q.NewUsers
	case models.MetricTransactions:
		return q.Transactions
	case models.MetricActiveUsers:
		return q.ActiveUsers
	default:
		return 0
	}
}

func (s *DashboardService) CreateGoal(ctx context.Context, goal *models.Goal) error {
	ctx, span := tracer.Start(ctx, "CreateGoal")
	defer span.End()

	goal.Name = strings.TrimSpace(goal.Name)
	switch {
	case goal.Name == "":
		return fmt.Errorf("%w: name is required", pkgerrors.ErrInvalidGoal)
	case !goal.Metric.Valid():
		return fmt.Errorf("%w: unknown metric %q", pkgerrors.ErrInvalidGoal, goal.Metric)
	case !goal.Period.Valid():
		return fmt.Errorf("%w: unknown period %q", pkgerrors.ErrInvalidGoal, goal.Period)
	case goal.Target <= 0:
		return fmt.Errorf("%w: target must be positive", pkgerrors.ErrInvalidGoal)
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		recordError(span, err, "create goal failed")
		return err
	}
	slog.Info("goal created", "method", "CreateGoal", "goal_id", goal.ID, "metric", goal.Metric)
	return nil
}
