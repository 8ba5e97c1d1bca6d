package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: email is required", pkgerrors.ErrValidation)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return pkgerrors.ErrEmailExists
		}
	}
	user.ID = r.s.nextID()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.s.users[user.ID] = &stored

	slog.Info("user created", "method", "Create", "user_id", user.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, pkgerrors.ErrUserNotFound
}

func (r *UserRepository) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[user.ID]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	for _, u := range r.s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return pkgerrors.ErrEmailExists
		}
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.s.now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return pkgerrors.ErrUserNotFound
	}
	if l, ok := r.s.ledgers.Get(ledgerKey(id)); ok {
		l.mu.Lock()
		n := len(l.txs)
		l.mu.Unlock()
		if n > 0 {
			return pkgerrors.ErrUserHasLedger
		}
	}
	delete(r.s.users, id)
	slog.Info("user deleted", "method", "Delete", "user_id", id)
	return nil
}
