// Package memory keeps the whole ledger in process. It backs STORAGE_DRIVER=memory and the
// service tests; semantics match the postgres package, including per-user write serialization.
package memory

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type Store struct {
	// mu guards every map below. Ledger writes hold it for reading so that writes for
	// different users proceed in parallel; deleting a user takes it for writing.
	mu            sync.RWMutex
	users         map[int64]*models.User
	rules         map[int64]*models.CoinRule
	alerts        map[int64]*models.Alert
	alertKeys     map[string]int64
	notifications map[int64]*models.Notification
	goals         []models.Goal

	ledgers cmap.ConcurrentMap[string, *userLedger]
	seq     atomic.Int64
	now     func() time.Time
}

type userLedger struct {
	mu  sync.Mutex
	txs []models.CoinTransaction
}

type Option func(*Store)

// WithClock overrides the clock used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		users:         make(map[int64]*models.User),
		rules:         make(map[int64]*models.CoinRule),
		alerts:        make(map[int64]*models.Alert),
		alertKeys:     make(map[string]int64),
		notifications: make(map[int64]*models.Notification),
		ledgers:       cmap.New[*userLedger](),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Transactions() *TransactionRepository   { return &TransactionRepository{s: s} }
func (s *Store) Rules() *RuleRepository                 { return &RuleRepository{s: s} }
func (s *Store) Alerts() *AlertRepository               { return &AlertRepository{s: s} }
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }
func (s *Store) Goals() *GoalRepository                 { return &GoalRepository{s: s} }
func (s *Store) Analytics() *AnalyticsRepository        { return &AnalyticsRepository{s: s} }

func (s *Store) nextID() int64 {
	return s.seq.Add(1)
}

func ledgerKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Store) ledger(userID int64) *userLedger {
	key := ledgerKey(userID)
	s.ledgers.SetIfAbsent(key, &userLedger{})
	l, _ := s.ledgers.Get(key)
	return l
}

// snapshot copies every ledger row. Callers must not hold any ledger lock.
func (s *Store) snapshot() []models.CoinTransaction {
	all := make([]models.CoinTransaction, 0)
	for item := range s.ledgers.IterBuffered() {
		l := item.Val
		l.mu.Lock()
		all = append(all, l.txs...)
		l.mu.Unlock()
	}
	return all
}

func balanceOf(txs []models.CoinTransaction) int64 {
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	return sum
}
