package memory

import (
	"context"
	"sort"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.UserID != nil {
		if _, ok := r.s.users[*n.UserID]; !ok {
			return pkgerrors.ErrUnknownUser
		}
	}
	n.ID = r.s.nextID()
	n.CreatedAt = r.s.now()
	stored := *n
	r.s.notifications[n.ID] = &stored
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id int64) (*models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, pkgerrors.ErrNotificationNotFound
	}
	out := *n
	return &out, nil
}

func (r *NotificationRepository) List(_ context.Context, userID *int64) ([]models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]models.Notification, 0)
	for _, n := range r.s.notifications {
		if userID == nil || n.UserID == nil || *n.UserID == *userID {
			list = append(list, *n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *NotificationRepository) Update(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.notifications[n.ID]
	if !ok {
		return pkgerrors.ErrNotificationNotFound
	}
	if n.UserID != nil {
		if _, ok := r.s.users[*n.UserID]; !ok {
			return pkgerrors.ErrUnknownUser
		}
	}
	n.CreatedAt = existing.CreatedAt
	stored := *n
	r.s.notifications[n.ID] = &stored
	return nil
}

func (r *NotificationRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[id]; !ok {
		return pkgerrors.ErrNotificationNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return pkgerrors.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}
