package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const ruleColumns = `id, name, description, action_type, coins_awarded, is_active, created_at, updated_at`

type RuleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *models.CoinRule) (err error) {
	if rule == nil {
		return pkgerrors.ErrNilRule
	}
	ctx, done := instrument(ctx, "CreateRule", attribute.String("action_type", rule.ActionType))
	defer func() { done(err) }()

	query := `INSERT INTO coin_rules (name, description, action_type, coins_awarded, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		rule.Name, rule.Description, rule.ActionType, rule.CoinsAwarded, rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if isUniqueViolation(err) {
		err = pkgerrors.ErrRuleConflict
		slog.Warn("active rule conflict", "method", "Create", "action_type", rule.ActionType)
		return err
	}
	if err != nil {
		slog.Error("failed to create rule", "method", "Create", "action_type", rule.ActionType, "error", err)
		return fmt.Errorf("failed to create rule: %w", err)
	}

	slog.Info("rule created", "method", "Create", "rule_id", rule.ID, "action_type", rule.ActionType, "coins_awarded", rule.CoinsAwarded)
	return nil
}

func (r *RuleRepository) Update(ctx context.Context, rule *models.CoinRule) (err error) {
	if rule == nil {
		return pkgerrors.ErrNilRule
	}
	ctx, done := instrument(ctx, "UpdateRule", attribute.Int64("rule_id", rule.ID))
	defer func() { done(err) }()

	query := `UPDATE coin_rules SET name = $1, description = $2, action_type = $3, coins_awarded = $4, is_active = $5, updated_at = NOW() WHERE id = $6 RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		rule.Name, rule.Description, rule.ActionType, rule.CoinsAwarded, rule.IsActive, rule.ID,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		err = pkgerrors.ErrRuleNotFound
		return err
	case isUniqueViolation(err):
		err = pkgerrors.ErrRuleConflict
		return err
	case err != nil:
		slog.Error("failed to update rule", "method", "Update", "rule_id", rule.ID, "error", err)
		return fmt.Errorf("failed to update rule: %w", err)
	}

	slog.Info("rule updated", "method", "Update", "rule_id", rule.ID, "is_active", rule.IsActive)
	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := instrument(ctx, "DeleteRule", attribute.Int64("rule_id", id))
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM coin_rules WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete rule", "method", "Delete", "rule_id", id, "error", err)
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrRuleNotFound
		return err
	}

	slog.Info("rule deleted", "method", "Delete", "rule_id", id)
	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id int64) (rule *models.CoinRule, err error) {
	ctx, done := instrument(ctx, "GetRuleByID", attribute.Int64("rule_id", id))
	defer func() { done(err) }()

	rule, err = scanRule(r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM coin_rules WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrRuleNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

func (r *RuleRepository) List(ctx context.Context) (rules []models.CoinRule, err error) {
	ctx, done := instrument(ctx, "ListRules")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM coin_rules ORDER BY id`)
	if err != nil {
		slog.Error("failed to list rules", "method", "List", "error", err)
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules = make([]models.CoinRule, 0)
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan rule: %w", scanErr)
			return nil, err
		}
		rules = append(rules, *rule)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

func (r *RuleRepository) FindActive(ctx context.Context, actionType string) (rule *models.CoinRule, err error) {
	ctx, done := instrument(ctx, "FindActiveRule", attribute.String("action_type", actionType))
	defer func() { done(err) }()

	query := `SELECT ` + ruleColumns + ` FROM coin_rules WHERE action_type = $1 AND is_active ORDER BY created_at DESC, id DESC LIMIT 1`
	rule, err = scanRule(r.db.QueryRowContext(ctx, query, actionType))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrRuleNotFound
	}
	if err != nil {
		slog.Error("failed to find active rule", "method", "FindActive", "action_type", actionType, "error", err)
		return nil, fmt.Errorf("failed to find active rule: %w", err)
	}
	return rule, nil
}

func scanRule(row scanner) (*models.CoinRule, error) {
	var rule models.CoinRule
	err := row.Scan(&rule.ID, &rule.Name, &rule.Description, &rule.ActionType, &rule.CoinsAwarded, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
