package repository

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type AlertRepository interface {
	// Upsert inserts alert unless an alert with the same key exists; existing rows are left untouched.
	Upsert(ctx context.Context, alert *models.Alert) error
	ListActive(ctx context.Context, limit int) ([]models.Alert, error)
	// Dismiss marks the alert dismissed. Unknown ids are not an error.
	Dismiss(ctx context.Context, id int64) error
}
