package memory

import (
	"context"
	"sort"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type RuleRepository struct {
	s *Store
}

func (r *RuleRepository) Create(_ context.Context, rule *models.CoinRule) error {
	if rule == nil {
		return pkgerrors.ErrNilRule
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rule.IsActive && r.activeConflict(rule.ActionType, 0) {
		return pkgerrors.ErrRuleConflict
	}
	rule.ID = r.s.nextID()
	rule.CreatedAt = r.s.now()
	rule.UpdatedAt = rule.CreatedAt
	stored := *rule
	r.s.rules[rule.ID] = &stored
	return nil
}

func (r *RuleRepository) Update(_ context.Context, rule *models.CoinRule) error {
	if rule == nil {
		return pkgerrors.ErrNilRule
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.rules[rule.ID]
	if !ok {
		return pkgerrors.ErrRuleNotFound
	}
	if rule.IsActive && r.activeConflict(rule.ActionType, rule.ID) {
		return pkgerrors.ErrRuleConflict
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = r.s.now()
	stored := *rule
	r.s.rules[rule.ID] = &stored
	return nil
}

func (r *RuleRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.rules[id]; !ok {
		return pkgerrors.ErrRuleNotFound
	}
	delete(r.s.rules, id)
	return nil
}

func (r *RuleRepository) GetByID(_ context.Context, id int64) (*models.CoinRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rule, ok := r.s.rules[id]
	if !ok {
		return nil, pkgerrors.ErrRuleNotFound
	}
	out := *rule
	return &out, nil
}

func (r *RuleRepository) List(_ context.Context) ([]models.CoinRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rules := make([]models.CoinRule, 0, len(r.s.rules))
	for _, rule := range r.s.rules {
		rules = append(rules, *rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (r *RuleRepository) FindActive(_ context.Context, actionType string) (*models.CoinRule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *models.CoinRule
	for _, rule := range r.s.rules {
		if !rule.IsActive || rule.ActionType != actionType {
			continue
		}
		if best == nil || rule.CreatedAt.After(best.CreatedAt) ||
			(rule.CreatedAt.Equal(best.CreatedAt) && rule.ID > best.ID) {
			best = rule
		}
	}
	if best == nil {
		return nil, pkgerrors.ErrRuleNotFound
	}
	out := *best
	return &out, nil
}

// activeConflict mirrors the partial unique index on active action types. Caller holds mu.
func (r *RuleRepository) activeConflict(actionType string, exceptID int64) bool {
	for _, rule := range r.s.rules {
		if rule.IsActive && rule.ActionType == actionType && rule.ID != exceptID {
			return true
		}
	}
	return false
}
