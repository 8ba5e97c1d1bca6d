package service

import (
	"context"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) Record(ctx context.Context, tx *models.CoinTransaction) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTransactionRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTransactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]models.CoinTransaction, error) {
	args := m.Called(ctx, filter)
	txs, _ := args.Get(0).([]models.CoinTransaction)
	return txs, args.Error(1)
}

type mockRedisClient struct {
	mock.Mock
}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *mockRedisClient) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockRedisClient) Close() error {
	return m.Called().Error(0)
}

type mockAnalyticsRepository struct {
	mock.Mock
}

func (m *mockAnalyticsRepository) Totals(ctx context.Context) (models.LedgerTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.LedgerTotals), args.Error(1)
}

func (m *mockAnalyticsRepository) QuickStats(ctx context.Context, since time.Time) (models.QuickStats, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(models.QuickStats), args.Error(1)
}

func (m *mockAnalyticsRepository) RecentActivity(ctx context.Context, limit int) ([]models.ActivityItem, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]models.ActivityItem)
	return items, args.Error(1)
}

func (m *mockAnalyticsRepository) TopBalances(ctx context.Context, limit int) ([]models.TopPerformer, error) {
	args := m.Called(ctx, limit)
	top, _ := args.Get(0).([]models.TopPerformer)
	return top, args.Error(1)
}

func (m *mockAnalyticsRepository) SourceTotals(ctx context.Context, since time.Time) ([]models.SourceTotal, error) {
	args := m.Called(ctx, since)
	totals, _ := args.Get(0).([]models.SourceTotal)
	return totals, args.Error(1)
}

func (m *mockAnalyticsRepository) DailyNet(ctx context.Context, since time.Time) ([]models.DailyPoint, error) {
	args := m.Called(ctx, since)
	points, _ := args.Get(0).([]models.DailyPoint)
	return points, args.Error(1)
}

func (m *mockAnalyticsRepository) Signups(ctx context.Context, since time.Time) ([]models.UserSignup, error) {
	args := m.Called(ctx, since)
	signups, _ := args.Get(0).([]models.UserSignup)
	return signups, args.Error(1)
}

func (m *mockAnalyticsRepository) Activity(ctx context.Context, since time.Time) ([]models.UserActivity, error) {
	args := m.Called(ctx, since)
	activity, _ := args.Get(0).([]models.UserActivity)
	return activity, args.Error(1)
}

func (m *mockAnalyticsRepository) NegativeBalanceUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type sentMessage struct {
	key   int64
	value []byte
}

type captureProducer struct {
	sent chan sentMessage
}

func (p *captureProducer) Send(_ context.Context, _ string, key int64, value []byte) error {
	p.sent <- sentMessage{key: key, value: value}
	return nil
}

func (p *captureProducer) Close() error { return nil }
