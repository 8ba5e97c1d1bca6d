package models

import "time"

type CoinTransaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Amount          int64           `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     string          `json:"description"`
	ActionType      string          `json:"action_type,omitempty"`
	RuleID          *int64          `json:"rule_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type TransactionType string

const (
	TypeEarn       TransactionType = "earn"
	TypeSpend      TransactionType = "spend"
	TypeAdjustment TransactionType = "adjustment"
)

// TypeForAmount derives the category label from the sign of amount.
func TypeForAmount(amount int64) TransactionType {
	if amount < 0 {
		return TypeSpend
	}
	return TypeEarn
}

// Valid reports whether t is a known type consistent with the sign of amount.
func (t TransactionType) Valid(amount int64) bool {
	switch t {
	case TypeEarn:
		return amount > 0
	case TypeSpend:
		return amount < 0
	case TypeAdjustment:
		return amount != 0
	default:
		return false
	}
}

type TransactionFilter struct {
	UserID *int64
	Limit  int
	Offset int
}

// RecordResult is a ledger write together with the balance observed in the same unit of work.
type RecordResult struct {
	Transaction CoinTransaction `json:"transaction"`
	Balance     int64           `json:"balance"`
}
