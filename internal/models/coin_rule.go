package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type CoinRule struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ActionType   string    `json:"action_type"`
	CoinsAwarded int64     `json:"coins_awarded"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RuleInput is a rule as submitted by a form, before coins_awarded is coerced.
type RuleInput struct {
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description" yaml:"description"`
	ActionType   string          `json:"action_type" yaml:"action_type"`
	CoinsAwarded json.RawMessage `json:"coins_awarded" yaml:"-"`
	IsActive     bool            `json:"is_active" yaml:"is_active"`
}

// NormalizeActionType trims and lower-cases an action type key.
func NormalizeActionType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseCoins coerces a coins_awarded value that may arrive as a JSON number or a numeric string.
func ParseCoins(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, pkgerrors.ErrInvalidCoins
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, pkgerrors.ErrInvalidCoins
		}
		s = strings.TrimSpace(str)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return 0, pkgerrors.ErrInvalidCoins
	}
	return n, nil
}

// EvaluationResult is the outcome of running the rule engine for one event.
// Applied is false for a NoOp, in which case Transaction is nil.
type EvaluationResult struct {
	Applied     bool             `json:"applied"`
	ActionType  string           `json:"action_type"`
	RuleID      *int64           `json:"rule_id,omitempty"`
	Transaction *CoinTransaction `json:"transaction,omitempty"`
	Balance     *int64           `json:"balance,omitempty"`
}
