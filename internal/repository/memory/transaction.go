package memory

import (
	"context"
	"log/slog"
	"sort"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type TransactionRepository struct {
	s *Store
}

func (r *TransactionRepository) Record(_ context.Context, tx *models.CoinTransaction) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.ErrNilTransaction
	}
	if tx.Amount == 0 {
		return 0, pkgerrors.ErrZeroAmount
	}
	if tx.TransactionType == "" {
		tx.TransactionType = models.TypeForAmount(tx.Amount)
	}
	if !tx.TransactionType.Valid(tx.Amount) {
		return 0, pkgerrors.ErrInvalidTransactionType
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.users[tx.UserID]; !ok {
		slog.Error("unknown user", "method", "Record", "user_id", tx.UserID)
		return 0, pkgerrors.ErrUnknownUser
	}

	l := r.s.ledger(tx.UserID)
	l.mu.Lock()
	defer l.mu.Unlock()

	tx.ID = r.s.nextID()
	tx.CreatedAt = r.s.now()
	l.txs = append(l.txs, *tx)
	balance := balanceOf(l.txs)

	slog.Info("transaction recorded", "method", "Record", "id", tx.ID, "user_id", tx.UserID, "amount", tx.Amount, "balance", balance)
	return balance, nil
}

func (r *TransactionRepository) GetBalance(_ context.Context, userID int64) (int64, error) {
	l, ok := r.s.ledgers.Get(ledgerKey(userID))
	if !ok {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return balanceOf(l.txs), nil
}

func (r *TransactionRepository) List(_ context.Context, filter models.TransactionFilter) ([]models.CoinTransaction, error) {
	var txs []models.CoinTransaction
	if filter.UserID != nil {
		if l, ok := r.s.ledgers.Get(ledgerKey(*filter.UserID)); ok {
			l.mu.Lock()
			txs = append(txs, l.txs...)
			l.mu.Unlock()
		}
	} else {
		txs = r.s.snapshot()
	}
	sortNewestFirst(txs)

	limit, offset := filter.Limit, filter.Offset
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(txs) {
		return []models.CoinTransaction{}, nil
	}
	end := offset + limit
	if end > len(txs) {
		end = len(txs)
	}
	return txs[offset:end], nil
}

func sortNewestFirst(txs []models.CoinTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
}
