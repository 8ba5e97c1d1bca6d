package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	"github.com/honeynil/CoinLedgerService/internal/repository/memory"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repository.UserRepository         = (*memory.UserRepository)(nil)
	_ repository.TransactionRepository  = (*memory.TransactionRepository)(nil)
	_ repository.RuleRepository         = (*memory.RuleRepository)(nil)
	_ repository.AlertRepository        = (*memory.AlertRepository)(nil)
	_ repository.NotificationRepository = (*memory.NotificationRepository)(nil)
	_ repository.GoalRepository         = (*memory.GoalRepository)(nil)
	_ repository.AnalyticsRepository    = (*memory.AnalyticsRepository)(nil)
)

func newUser(t *testing.T, store *memory.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: email}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestTransactionRepository_Record(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	txs := store.Transactions()
	user := newUser(t, store, "ann@example.com")

	t.Run("BalanceIsSumOfAmounts", func(t *testing.T) {
		for _, amount := range []int64{100, -30, 5} {
			_, err := txs.Record(ctx, &models.CoinTransaction{UserID: user.ID, Amount: amount})
			require.NoError(t, err)
		}
		balance, err := txs.GetBalance(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(75), balance)
	})

	t.Run("NewestFirst", func(t *testing.T) {
		list, err := txs.List(ctx, models.TransactionFilter{UserID: &user.ID})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, int64(5), list[0].Amount)
		assert.Equal(t, int64(100), list[2].Amount)
		assert.Equal(t, models.TypeSpend, list[1].TransactionType)
	})

	t.Run("ZeroAmountRejected", func(t *testing.T) {
		_, err := txs.Record(ctx, &models.CoinTransaction{UserID: user.ID})
		assert.ErrorIs(t, err, pkgerrors.ErrValidation)
		balance, _ := txs.GetBalance(ctx, user.ID)
		assert.Equal(t, int64(75), balance)
	})

	t.Run("UnknownUserRejected", func(t *testing.T) {
		_, err := txs.Record(ctx, &models.CoinTransaction{UserID: 999, Amount: 5})
		assert.ErrorIs(t, err, pkgerrors.ErrUnknownUser)
		list, _ := txs.List(ctx, models.TransactionFilter{})
		assert.Len(t, list, 3)
	})

	t.Run("NoTransactionsIsZero", func(t *testing.T) {
		other := newUser(t, store, "bob@example.com")
		balance, err := txs.GetBalance(ctx, other.ID)
		assert.NoError(t, err)
		assert.Zero(t, balance)
	})
}

func TestTransactionRepository_ConcurrentWritesSameUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	txs := store.Transactions()
	user := newUser(t, store, "ann@example.com")

	const writers = 50
	var wg sync.WaitGroup
	balances := make(chan int64, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := txs.Record(ctx, &models.CoinTransaction{UserID: user.ID, Amount: 10})
			assert.NoError(t, err)
			balances <- b
		}()
	}
	wg.Wait()
	close(balances)

	seen := make(map[int64]bool)
	for b := range balances {
		assert.False(t, seen[b], "balance %d observed twice", b)
		seen[b] = true
	}
	balance, err := txs.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers*10), balance)
}

func TestUserRepository_DeleteWithLedger(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := newUser(t, store, "ann@example.com")
	empty := newUser(t, store, "bob@example.com")
	_, err := store.Transactions().Record(ctx, &models.CoinTransaction{UserID: user.ID, Amount: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, store.Users().Delete(ctx, user.ID), pkgerrors.ErrUserHasLedger)
	assert.NoError(t, store.Users().Delete(ctx, empty.ID))
	assert.ErrorIs(t, store.Users().Delete(ctx, empty.ID), pkgerrors.ErrUserNotFound)
	assert.ErrorIs(t, store.Users().Create(ctx, &models.User{Email: "ann@example.com"}), pkgerrors.ErrEmailExists)
}

func TestRuleRepository_ActiveUniqueness(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	rules := store.Rules()

	login := &models.CoinRule{Name: "Daily login", ActionType: "login", CoinsAwarded: 10, IsActive: true}
	require.NoError(t, rules.Create(ctx, login))

	dup := &models.CoinRule{Name: "Other login", ActionType: "login", CoinsAwarded: 20, IsActive: true}
	assert.ErrorIs(t, rules.Create(ctx, dup), pkgerrors.ErrRuleConflict)

	inactive := &models.CoinRule{Name: "Other login", ActionType: "login", CoinsAwarded: 20}
	require.NoError(t, rules.Create(ctx, inactive))

	inactive.IsActive = true
	assert.ErrorIs(t, rules.Update(ctx, inactive), pkgerrors.ErrRuleConflict)

	found, err := rules.FindActive(ctx, "login")
	require.NoError(t, err)
	assert.Equal(t, login.ID, found.ID)

	_, err = rules.FindActive(ctx, "referral")
	assert.ErrorIs(t, err, pkgerrors.ErrRuleNotFound)
}

func TestAlertRepository_DismissSticks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	alerts := store.Alerts()

	a := &models.Alert{Key: "quiet-ledger:2026-10-18", Type: models.AlertWarning, Title: "Quiet ledger"}
	require.NoError(t, alerts.Upsert(ctx, a))
	require.NoError(t, alerts.Dismiss(ctx, a.ID))
	require.NoError(t, alerts.Dismiss(ctx, a.ID))
	require.NoError(t, alerts.Dismiss(ctx, 12345))

	again := &models.Alert{Key: "quiet-ledger:2026-10-18", Type: models.AlertWarning, Title: "Quiet ledger"}
	require.NoError(t, alerts.Upsert(ctx, again))

	active, err := alerts.ListActive(ctx, 20)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestNotificationRepository_ListIncludesBroadcasts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ann := newUser(t, store, "ann@example.com")
	bob := newUser(t, store, "bob@example.com")
	repo := store.Notifications()

	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: &ann.ID, Title: "for ann", Type: models.NotificationInfo}))
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: &bob.ID, Title: "for bob", Type: models.NotificationInfo}))
	require.NoError(t, repo.Create(ctx, &models.Notification{Title: "everyone", Type: models.NotificationPromo}))

	list, err := repo.List(ctx, &ann.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing := int64(999)
	assert.ErrorIs(t, repo.Create(ctx, &models.Notification{UserID: &missing, Title: "x"}), pkgerrors.ErrUnknownUser)
}

func TestAnalyticsRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := now
	store := memory.NewStore(memory.WithClock(func() time.Time { return clock }))
	ann := newUser(t, store, "ann@example.com")
	bob := newUser(t, store, "bob@example.com")
	txs := store.Transactions()
	ruleID := int64(1)

	_, err := txs.Record(ctx, &models.CoinTransaction{UserID: ann.ID, Amount: 100, ActionType: "signup", RuleID: &ruleID})
	require.NoError(t, err)
	_, err = txs.Record(ctx, &models.CoinTransaction{UserID: ann.ID, Amount: 50})
	require.NoError(t, err)
	clock = now.Add(time.Hour)
	_, err = txs.Record(ctx, &models.CoinTransaction{UserID: bob.ID, Amount: -20})
	require.NoError(t, err)

	analytics := store.Analytics()

	totals, err := analytics.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.TotalUsers)
	assert.Equal(t, int64(3), totals.TotalTransactions)
	assert.Equal(t, int64(150), totals.CoinsEarned)
	assert.Equal(t, int64(20), totals.CoinsSpent)
	assert.Equal(t, int64(130), totals.CoinsInCirculation)

	sources, err := analytics.SourceTotals(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.SourceTotal{{Source: "signup", Amount: 100}, {Source: "manual", Amount: 50}}, sources)

	top, err := analytics.TopBalances(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, ann.ID, top[0].UserID)
	assert.Equal(t, int64(150), top[0].Balance)

	negative, err := analytics.NegativeBalanceUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), negative)

	feed, err := analytics.RecentActivity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, bob.ID, feed[0].UserID)
	assert.Equal(t, "bob@example.com", feed[0].UserName)

	daily, err := analytics.DailyNet(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, float64(130), daily[0].Value)
}
