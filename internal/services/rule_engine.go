package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stderrors "errors"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/observability"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const eventKeyTTL = 24 * time.Hour

// Well-known action types raised by the service itself.
const (
	ActionSignup         = "signup"
	ActionLogin          = "login"
	ActionPremiumUpgrade = "premium_upgrade"
)

type RuleEngine struct {
	rules  repository.RuleRepository
	ledger *LedgerService
	redis  redis.RedisClient
}

func NewRuleEngine(rules repository.RuleRepository, ledger *LedgerService, redisClient redis.RedisClient) *RuleEngine {
	return &RuleEngine{rules: rules, ledger: ledger, redis: redisClient}
}

func eventKey(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

// Evaluate applies the active rule for actionType to userID. Without an active rule the result
// is a NoOp and nothing is written. A non-empty eventID is processed at most once.
func (e *RuleEngine) Evaluate(ctx context.Context, actionType string, userID int64, eventID string) (*models.EvaluationResult, error) {
	ctx, span := tracer.Start(ctx, "Evaluate")
	defer span.End()

	actionType = models.NormalizeActionType(actionType)
	span.SetAttributes(attribute.String("action_type", actionType), attribute.Int64("user_id", userID))
	if actionType == "" {
		observability.RuleEvaluations.WithLabelValues("error").Inc()
		return nil, pkgerrors.ErrEmptyActionType
	}

	if eventID != "" {
		ok, err := e.redis.SetNX(ctx, eventKey(eventID), actionType, eventKeyTTL)
		if err != nil {
			recordError(span, err, "idempotency claim failed")
			observability.RuleEvaluations.WithLabelValues("error").Inc()
			slog.Error("failed to claim event", "method", "Evaluate", "event_id", eventID, "error", err)
			return nil, fmt.Errorf("%w: failed to claim event", pkgerrors.ErrInternal)
		}
		if !ok {
			slog.Info("event already processed", "method", "Evaluate", "event_id", eventID)
			return nil, pkgerrors.ErrEventAlreadyProcessed
		}
	}

	rule, err := e.rules.FindActive(ctx, actionType)
	if stderrors.Is(err, pkgerrors.ErrRuleNotFound) {
		observability.RuleEvaluations.WithLabelValues("noop").Inc()
		slog.Info("no active rule", "method", "Evaluate", "action_type", actionType, "user_id", userID)
		return &models.EvaluationResult{Applied: false, ActionType: actionType}, nil
	}
	if err != nil {
		e.release(ctx, eventID)
		recordError(span, err, "rule lookup failed")
		observability.RuleEvaluations.WithLabelValues("error").Inc()
		return nil, err
	}

	ruleID := rule.ID
	result, err := e.ledger.RecordTransaction(ctx, &models.CoinTransaction{
		UserID:      userID,
		Amount:      rule.CoinsAwarded,
		Description: fmt.Sprintf("%s (%s)", rule.Name, actionType),
		ActionType:  actionType,
		RuleID:      &ruleID,
	})
	if err != nil {
		e.release(ctx, eventID)
		recordError(span, err, "ledger write failed")
		observability.RuleEvaluations.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.RuleEvaluations.WithLabelValues("applied").Inc()
	slog.Info("rule applied", "method", "Evaluate", "rule_id", rule.ID, "action_type", actionType, "user_id", userID, "amount", rule.CoinsAwarded)
	return &models.EvaluationResult{
		Applied:     true,
		ActionType:  actionType,
		RuleID:      &ruleID,
		Transaction: &result.Transaction,
		Balance:     &result.Balance,
	}, nil
}

// release frees an event claim after a failed write so the event can be retried.
func (e *RuleEngine) release(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	if err := e.redis.Del(ctx, eventKey(eventID)); err != nil {
		slog.Error("failed to release event claim", "event_id", eventID, "error", err)
	}
}

func validateRule(in models.RuleInput) (*models.CoinRule, error) {
	rule := &models.CoinRule{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ActionType:  models.NormalizeActionType(in.ActionType),
		IsActive:    in.IsActive,
	}
	if rule.Name == "" {
		return nil, pkgerrors.ErrEmptyRuleName
	}
	if rule.ActionType == "" {
		return nil, pkgerrors.ErrEmptyActionType
	}
	coins, err := models.ParseCoins(in.CoinsAwarded)
	if err != nil {
		return nil, err
	}
	rule.CoinsAwarded = coins
	return rule, nil
}

// checkActiveConflict fails when another rule is already active for the action type.
func (e *RuleEngine) checkActiveConflict(ctx context.Context, rule *models.CoinRule) error {
	if !rule.IsActive {
		return nil
	}
	existing, err := e.rules.FindActive(ctx, rule.ActionType)
	if stderrors.Is(err, pkgerrors.ErrRuleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != rule.ID {
		return pkgerrors.ErrRuleConflict
	}
	return nil
}

func (e *RuleEngine) CreateRule(ctx context.Context, in models.RuleInput) (*models.CoinRule, error) {
	ctx, span := tracer.Start(ctx, "CreateRule")
	defer span.End()

	rule, err := validateRule(in)
	if err != nil {
		recordError(span, err, "invalid rule")
		return nil, err
	}
	if err := e.checkActiveConflict(ctx, rule); err != nil {
		recordError(span, err, "active rule conflict")
		return nil, err
	}
	if err := e.rules.Create(ctx, rule); err != nil {
		recordError(span, err, "create failed")
		return nil, err
	}
	slog.Info("rule created", "method", "CreateRule", "rule_id", rule.ID, "action_type", rule.ActionType)
	return rule, nil
}

func (e *RuleEngine) UpdateRule(ctx context.Context, id int64, in models.RuleInput) (*models.CoinRule, error) {
	ctx, span := tracer.Start(ctx, "UpdateRule")
	defer span.End()

	if _, err := e.rules.GetByID(ctx, id); err != nil {
		recordError(span, err, "rule lookup failed")
		return nil, err
	}
	rule, err := validateRule(in)
	if err != nil {
		recordError(span, err, "invalid rule")
		return nil, err
	}
	rule.ID = id
	if err := e.checkActiveConflict(ctx, rule); err != nil {
		recordError(span, err, "active rule conflict")
		return nil, err
	}
	if err := e.rules.Update(ctx, rule); err != nil {
		recordError(span, err, "update failed")
		return nil, err
	}
	slog.Info("rule updated", "method", "UpdateRule", "rule_id", id, "is_active", rule.IsActive)
	return rule, nil
}

func (e *RuleEngine) DeleteRule(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "DeleteRule")
	defer span.End()

	if err := e.rules.Delete(ctx, id); err != nil {
		recordError(span, err, "delete failed")
		return err
	}
	slog.Info("rule deleted", "method", "DeleteRule", "rule_id", id)
	return nil
}

func (e *RuleEngine) GetRule(ctx context.Context, id int64) (*models.CoinRule, error) {
	return e.rules.GetByID(ctx, id)
}

func (e *RuleEngine) ListRules(ctx context.Context) ([]models.CoinRule, error) {
	return e.rules.List(ctx)
}

// SeedRules creates rules in order, skipping ones that conflict with an active rule.
func (e *RuleEngine) SeedRules(ctx context.Context, inputs []models.RuleInput) (created int, err error) {
	for _, in := range inputs {
		_, err := e.CreateRule(ctx, in)
		if stderrors.Is(err, pkgerrors.ErrRuleConflict) {
			slog.Warn("skipping conflicting rule", "name", in.Name, "action_type", in.ActionType)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed rule %q: %w", in.Name, err)
		}
		created++
	}
	return created, nil
}
