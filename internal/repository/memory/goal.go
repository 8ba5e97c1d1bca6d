package memory

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type GoalRepository struct {
	s *Store
}

func (r *GoalRepository) Create(_ context.Context, goal *models.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	goal.ID = r.s.nextID()
	goal.CreatedAt = r.s.now()
	r.s.goals = append(r.s.goals, *goal)
	return nil
}

func (r *GoalRepository) List(_ context.Context) ([]models.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]models.Goal{}, r.s.goals...), nil
}
