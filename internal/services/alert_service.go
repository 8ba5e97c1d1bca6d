package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	"golang.org/x/sync/errgroup"
)

type AlertConfig struct {
	Limit           int
	AwardSpike      int64
	SignupMilestone int64
}

type AlertService struct {
	analytics repository.AnalyticsRepository
	alerts    repository.AlertRepository
	cfg       AlertConfig
	now       func() time.Time
}

func NewAlertService(analyticsRepo repository.AnalyticsRepository, alerts repository.AlertRepository, cfg AlertConfig) *AlertService {
	return &AlertService{
		analytics: analyticsRepo,
		alerts:    alerts,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type ledgerSignals struct {
	totals   models.LedgerTotals
	recent   models.QuickStats
	negative int64
}

// ListAlerts refreshes the derived alerts for today and returns the undismissed ones, newest
// first. Alerts are keyed per day, so a dismissed alert stays dismissed until the next day.
func (s *AlertService) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	ctx, span := tracer.Start(ctx, "ListAlerts")
	defer span.End()

	now := s.now()
	var sig ledgerSignals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sig.totals, err = s.analytics.Totals(gctx)
		return err
	})
	g.Go(func() (err error) {
		sig.recent, err = s.analytics.QuickStats(gctx, now.Add(-24*time.Hour))
		return err
	})
	g.Go(func() (err error) {
		sig.negative, err = s.analytics.NegativeBalanceUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		recordError(span, err, "gather failed")
		slog.Error("failed to gather alert signals", "method", "ListAlerts", "error", err)
		return nil, err
	}

	for _, a := range s.derive(sig, now) {
		alert := a
		if err := s.alerts.Upsert(ctx, &alert); err != nil {
			recordError(span, err, "upsert failed")
			return nil, err
		}
	}

	alerts, err := s.alerts.ListActive(ctx, s.cfg.Limit)
	if err != nil {
		recordError(span, err, "list failed")
		return nil, err
	}
	return alerts, nil
}

func (s *AlertService) derive(sig ledgerSignals, now time.Time) []models.Alert {
	date := now.Format("2006-01-02")
	var out []models.Alert
	if sig.negative > 0 {
		out = append(out, models.Alert{
			Key:     "negative-balances:" + date,
			Type:    models.AlertWarning,
			Title:   "Negative balances",
			Message: fmt.Sprintf("%d users have a negative coin balance", sig.negative),
		})
	}
	if sig.totals.ActiveRules == 0 {
		out = append(out, models.Alert{
			Key:     "no-active-rules:" + date,
			Type:    models.AlertInfo,
			Title:   "No active coin rules",
			Message: "No coin rule is active, so user actions award nothing",
		})
	}
	if sig.recent.Transactions == 0 && sig.totals.TotalTransactions > 0 {
		out = append(out, models.Alert{
			Key:     "quiet-ledger:" + date,
			Type:    models.AlertWarning,
			Title:   "Quiet ledger",
			Message: "No coin transactions were recorded in the last 24 hours",
		})
	}
	if s.cfg.AwardSpike > 0 && sig.recent.CoinsAwarded >= s.cfg.AwardSpike {
		out = append(out, models.Alert{
			Key:      "award-spike:" + date,
			Type:     models.AlertWarning,
			Title:    "Coin award spike",
			Message:  fmt.Sprintf("%d coins were awarded in the last 24 hours", sig.recent.CoinsAwarded),
			Severity: "high",
		})
	}
	if s.cfg.SignupMilestone > 0 && sig.recent.NewUsers >= s.cfg.SignupMilestone {
		out = append(out, models.Alert{
			Key:     "signup-milestone:" + date,
			Type:    models.AlertSuccess,
			Title:   "Signup milestone",
			Message: fmt.Sprintf("%d new users joined in the last 24 hours", sig.recent.NewUsers),
		})
	}
	return out
}

// DismissAlert is idempotent; unknown ids succeed.
func (s *AlertService) DismissAlert(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "DismissAlert")
	defer span.End()

	if err := s.alerts.Dismiss(ctx, id); err != nil {
		recordError(span, err, "dismiss failed")
		return err
	}
	slog.Info("alert dismissed", "method", "DismissAlert", "alert_id", id)
	return nil
}
