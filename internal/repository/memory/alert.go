package memory

import (
	"context"
	"sort"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type AlertRepository struct {
	s *Store
}

func (r *AlertRepository) Upsert(_ context.Context, alert *models.Alert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.alertKeys[alert.Key]; exists {
		return nil
	}
	alert.ID = r.s.nextID()
	alert.CreatedAt = r.s.now()
	stored := *alert
	r.s.alerts[alert.ID] = &stored
	r.s.alertKeys[alert.Key] = alert.ID
	return nil
}

func (r *AlertRepository) ListActive(_ context.Context, limit int) ([]models.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	alerts := make([]models.Alert, 0)
	for _, a := range r.s.alerts {
		if a.DismissedAt == nil {
			alerts = append(alerts, *a)
		}
	}
	sort.Slice(alerts, func(i, j int) bool {
		if !alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		}
		return alerts[i].ID > alerts[j].ID
	})
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts, nil
}

func (r *AlertRepository) Dismiss(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.alerts[id]; ok && a.DismissedAt == nil {
		now := r.s.now()
		a.DismissedAt = &now
	}
	return nil
}
