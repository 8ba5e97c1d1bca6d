package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Totals(ctx context.Context) (t models.LedgerTotals, err error) {
	ctx, done := instrument(ctx, "Totals")
	defer func() { done(err) }()

	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_premium_member),
			(SELECT COUNT(*) FROM coin_transactions),
			(SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE amount > 0),
			(SELECT COALESCE(-SUM(amount), 0) FROM coin_transactions WHERE amount < 0),
			(SELECT COUNT(*) FROM coin_rules WHERE is_active)
	`
	err = r.db.QueryRowContext(ctx, query).Scan(
		&t.TotalUsers, &t.PremiumUsers, &t.TotalTransactions, &t.CoinsEarned, &t.CoinsSpent, &t.ActiveRules,
	)
	if err != nil {
		return t, fmt.Errorf("failed to read totals: %w", err)
	}
	t.CoinsInCirculation = t.CoinsEarned - t.CoinsSpent
	return t, nil
}

func (r *AnalyticsRepository) QuickStats(ctx context.Context, since time.Time) (q models.QuickStats, err error) {
	ctx, done := instrument(ctx, "QuickStats")
	defer func() { done(err) }()

	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE created_at >= $1),
			(SELECT COUNT(*) FROM coin_transactions WHERE created_at >= $1),
			(SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE created_at >= $1 AND amount > 0),
			(SELECT COUNT(DISTINCT user_id) FROM coin_transactions WHERE created_at >= $1)
	`
	q.Since = since
	err = r.db.QueryRowContext(ctx, query, since).Scan(&q.NewUsers, &q.Transactions, &q.CoinsAwarded, &q.ActiveUsers)
	if err != nil {
		return q, fmt.Errorf("failed to read quick stats: %w", err)
	}
	return q, nil
}

func (r *AnalyticsRepository) RecentActivity(ctx context.Context, limit int) (items []models.ActivityItem, err error) {
	ctx, done := instrument(ctx, "RecentActivity")
	defer func() { done(err) }()

	query := `
		SELECT t.id, t.user_id, u.full_name, t.amount, t.transaction_type, t.description, t.created_at
		FROM coin_transactions t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	defer rows.Close()

	items = make([]models.ActivityItem, 0)
	for rows.Next() {
		var it models.ActivityItem
		if err = rows.Scan(&it.TransactionID, &it.UserID, &it.UserName, &it.Amount, &it.TransactionType, &it.Description, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *AnalyticsRepository) TopBalances(ctx context.Context, limit int) (top []models.TopPerformer, err error) {
	ctx, done := instrument(ctx, "TopBalances")
	defer func() { done(err) }()

	query := `
		SELECT u.id, u.full_name, u.email, SUM(t.amount) AS balance
		FROM users u
		JOIN coin_transactions t ON t.user_id = u.id
		GROUP BY u.id, u.full_name, u.email
		ORDER BY balance DESC, u.id
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read top balances: %w", err)
	}
	defer rows.Close()

	top = make([]models.TopPerformer, 0)
	for rows.Next() {
		var p models.TopPerformer
		if err = rows.Scan(&p.UserID, &p.FullName, &p.Email, &p.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan top balance: %w", err)
		}
		top = append(top, p)
	}
	return top, rows.Err()
}

func (r *AnalyticsRepository) SourceTotals(ctx context.Context, since time.Time) (totals []models.SourceTotal, err error) {
	ctx, done := instrument(ctx, "SourceTotals")
	defer func() { done(err) }()

	query := `
		SELECT COALESCE(action_type, 'manual') AS source, SUM(amount)
		FROM coin_transactions
		WHERE amount > 0 AND created_at >= $1
		GROUP BY source
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read source totals: %w", err)
	}
	defer rows.Close()

	totals = make([]models.SourceTotal, 0)
	for rows.Next() {
		var s models.SourceTotal
		if err = rows.Scan(&s.Source, &s.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan source total: %w", err)
		}
		totals = append(totals, s)
	}
	return totals, rows.Err()
}

func (r *AnalyticsRepository) DailyNet(ctx context.Context, since time.Time) (points []models.DailyPoint, err error) {
	ctx, done := instrument(ctx, "DailyNet")
	defer func() { done(err) }()

	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, SUM(amount)
		FROM coin_transactions
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily totals: %w", err)
	}
	defer rows.Close()

	points = make([]models.DailyPoint, 0)
	for rows.Next() {
		var p models.DailyPoint
		if err = rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		p.Date = p.Date.UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *AnalyticsRepository) Signups(ctx context.Context, since time.Time) (signups []models.UserSignup, err error) {
	ctx, done := instrument(ctx, "Signups")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, `SELECT id, created_at FROM users WHERE created_at >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read signups: %w", err)
	}
	defer rows.Close()

	signups = make([]models.UserSignup, 0)
	for rows.Next() {
		var s models.UserSignup
		if err = rows.Scan(&s.UserID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		signups = append(signups, s)
	}
	return signups, rows.Err()
}

func (r *AnalyticsRepository) Activity(ctx context.Context, since time.Time) (activity []models.UserActivity, err error) {
	ctx, done := instrument(ctx, "Activity")
	defer func() { done(err) }()

	query := `SELECT DISTINCT user_id, date_trunc('day', created_at AT TIME ZONE 'UTC') FROM coin_transactions WHERE created_at >= $1`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	defer rows.Close()

	activity = make([]models.UserActivity, 0)
	for rows.Next() {
		var a models.UserActivity
		if err = rows.Scan(&a.UserID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

func (r *AnalyticsRepository) NegativeBalanceUsers(ctx context.Context) (count int64, err error) {
	ctx, done := instrument(ctx, "NegativeBalanceUsers")
	defer func() { done(err) }()

	query := `SELECT COUNT(*) FROM (SELECT user_id FROM coin_transactions GROUP BY user_id HAVING SUM(amount) < 0) neg`
	if err = r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count negative balances: %w", err)
	}
	return count, nil
}
