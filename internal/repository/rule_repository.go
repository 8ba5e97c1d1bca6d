package repository

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type RuleRepository interface {
	Create(ctx context.Context, rule *models.CoinRule) error
	Update(ctx context.Context, rule *models.CoinRule) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.CoinRule, error)
	List(ctx context.Context) ([]models.CoinRule, error)
	// FindActive returns the active rule for actionType, preferring the most recently created.
	// Returns ErrRuleNotFound when there is none.
	FindActive(ctx context.Context, actionType string) (*models.CoinRule, error)
}
