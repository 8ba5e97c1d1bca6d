package memory

import (
	"context"
	"sort"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

const manualSource = "manual"

type AnalyticsRepository struct {
	s *Store
}

func (r *AnalyticsRepository) Totals(_ context.Context) (models.LedgerTotals, error) {
	var t models.LedgerTotals
	r.s.mu.RLock()
	t.TotalUsers = int64(len(r.s.users))
	for _, u := range r.s.users {
		if u.IsPremiumMember {
			t.PremiumUsers++
		}
	}
	for _, rule := range r.s.rules {
		if rule.IsActive {
			t.ActiveRules++
		}
	}
	r.s.mu.RUnlock()

	for _, tx := range r.s.snapshot() {
		t.TotalTransactions++
		if tx.Amount > 0 {
			t.CoinsEarned += tx.Amount
		} else {
			t.CoinsSpent -= tx.Amount
		}
	}
	t.CoinsInCirculation = t.CoinsEarned - t.CoinsSpent
	return t, nil
}

func (r *AnalyticsRepository) QuickStats(_ context.Context, since time.Time) (models.QuickStats, error) {
	q := models.QuickStats{Since: since}
	r.s.mu.RLock()
	for _, u := range r.s.users {
		if !u.CreatedAt.Before(since) {
			q.NewUsers++
		}
	}
	r.s.mu.RUnlock()

	active := make(map[int64]struct{})
	for _, tx := range r.s.snapshot() {
		if tx.CreatedAt.Before(since) {
			continue
		}
		q.Transactions++
		if tx.Amount > 0 {
			q.CoinsAwarded += tx.Amount
		}
		active[tx.UserID] = struct{}{}
	}
	q.ActiveUsers = int64(len(active))
	return q, nil
}

func (r *AnalyticsRepository) RecentActivity(_ context.Context, limit int) ([]models.ActivityItem, error) {
	txs := r.s.snapshot()
	sortNewestFirst(txs)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]models.ActivityItem, 0, len(txs))
	for _, tx := range txs {
		item := models.ActivityItem{
			TransactionID:   tx.ID,
			UserID:          tx.UserID,
			Amount:          tx.Amount,
			TransactionType: tx.TransactionType,
			Description:     tx.Description,
			CreatedAt:       tx.CreatedAt,
		}
		if u, ok := r.s.users[tx.UserID]; ok {
			item.UserName = u.FullName
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *AnalyticsRepository) TopBalances(_ context.Context, limit int) ([]models.TopPerformer, error) {
	balances := make(map[int64]int64)
	for _, tx := range r.s.snapshot() {
		balances[tx.UserID] += tx.Amount
	}

	r.s.mu.RLock()
	top := make([]models.TopPerformer, 0, len(balances))
	for id, balance := range balances {
		p := models.TopPerformer{UserID: id, Balance: balance}
		if u, ok := r.s.users[id]; ok {
			p.FullName, p.Email = u.FullName, u.Email
		}
		top = append(top, p)
	}
	r.s.mu.RUnlock()

	sort.Slice(top, func(i, j int) bool {
		if top[i].Balance != top[j].Balance {
			return top[i].Balance > top[j].Balance
		}
		return top[i].UserID < top[j].UserID
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (r *AnalyticsRepository) SourceTotals(_ context.Context, since time.Time) ([]models.SourceTotal, error) {
	sums := make(map[string]int64)
	for _, tx := range r.s.snapshot() {
		if tx.Amount <= 0 || tx.CreatedAt.Before(since) {
			continue
		}
		source := tx.ActionType
		if source == "" {
			source = manualSource
		}
		sums[source] += tx.Amount
	}
	totals := make([]models.SourceTotal, 0, len(sums))
	for source, amount := range sums {
		totals = append(totals, models.SourceTotal{Source: source, Amount: amount})
	}
	return totals, nil
}

func (r *AnalyticsRepository) DailyNet(_ context.Context, since time.Time) ([]models.DailyPoint, error) {
	sums := make(map[time.Time]float64)
	for _, tx := range r.s.snapshot() {
		if tx.CreatedAt.Before(since) {
			continue
		}
		sums[truncateDay(tx.CreatedAt)] += float64(tx.Amount)
	}
	points := make([]models.DailyPoint, 0, len(sums))
	for day, v := range sums {
		points = append(points, models.DailyPoint{Date: day, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (r *AnalyticsRepository) Signups(_ context.Context, since time.Time) ([]models.UserSignup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	signups := make([]models.UserSignup, 0)
	for _, u := range r.s.users {
		if !u.CreatedAt.Before(since) {
			signups = append(signups, models.UserSignup{UserID: u.ID, CreatedAt: u.CreatedAt})
		}
	}
	return signups, nil
}

func (r *AnalyticsRepository) Activity(_ context.Context, since time.Time) ([]models.UserActivity, error) {
	type userDay struct {
		user int64
		day  time.Time
	}
	seen := make(map[userDay]struct{})
	activity := make([]models.UserActivity, 0)
	for _, tx := range r.s.snapshot() {
		if tx.CreatedAt.Before(since) {
			continue
		}
		key := userDay{tx.UserID, truncateDay(tx.CreatedAt)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		activity = append(activity, models.UserActivity{UserID: key.user, CreatedAt: key.day})
	}
	return activity, nil
}

func (r *AnalyticsRepository) NegativeBalanceUsers(_ context.Context) (int64, error) {
	balances := make(map[int64]int64)
	for _, tx := range r.s.snapshot() {
		balances[tx.UserID] += tx.Amount
	}
	var n int64
	for _, b := range balances {
		if b < 0 {
			n++
		}
	}
	return n, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
