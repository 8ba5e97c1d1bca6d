package repository

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) error
	List(ctx context.Context) ([]models.Goal, error)
}
