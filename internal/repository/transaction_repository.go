package repository

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

// TransactionRepository is the append-only coin ledger.
type TransactionRepository interface {
	// Record appends tx for an existing user and returns the user's balance including it.
	// Concurrent calls for the same user are serialized.
	Record(ctx context.Context, tx *models.CoinTransaction) (int64, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, filter models.TransactionFilter) ([]models.CoinTransaction, error)
}
