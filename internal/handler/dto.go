package handler

import (
	"encoding/json"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type ruleRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description" validate:"max=500"`
	ActionType   string          `json:"action_type" validate:"required,max=64"`
	CoinsAwarded json.RawMessage `json:"coins_awarded"`
	IsActive     bool            `json:"is_active"`
}

func (r ruleRequest) input() models.RuleInput {
	return models.RuleInput{
		Name:         r.Name,
		Description:  r.Description,
		ActionType:   r.ActionType,
		CoinsAwarded: r.CoinsAwarded,
		IsActive:     r.IsActive,
	}
}

type recordTransactionRequest struct {
	UserID          int64  `json:"user_id" validate:"required,gt=0"`
	Amount          int64  `json:"amount"`
	TransactionType string `json:"transaction_type" validate:"omitempty,oneof=earn spend adjustment"`
	Description     string `json:"description" validate:"max=500"`
}

type evaluateRequest struct {
	ActionType string `json:"action_type" validate:"required"`
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
	EventID    string `json:"event_id" validate:"max=200"`
}

type balanceResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

type createUserRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	FullName        string  `json:"full_name" validate:"required,max=200"`
	Phone           string  `json:"phone" validate:"max=32"`
	MonthlyIncome   float64 `json:"monthly_income" validate:"gte=0"`
	IsPremiumMember bool    `json:"is_premium_member"`
	IsAdmin         bool    `json:"is_admin"`
	Password        string  `json:"password" validate:"omitempty,min=4"`
}

type updateUserRequest struct {
	Email           *string  `json:"email" validate:"omitempty,email"`
	FullName        *string  `json:"full_name" validate:"omitempty,max=200"`
	Phone           *string  `json:"phone" validate:"omitempty,max=32"`
	MonthlyIncome   *float64 `json:"monthly_income" validate:"omitempty,gte=0"`
	IsPremiumMember *bool    `json:"is_premium_member"`
	IsAdmin         *bool    `json:"is_admin"`
	Password        *string  `json:"password" validate:"omitempty,min=4"`
}

type goalRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Metric string `json:"metric" validate:"required"`
	Target int64  `json:"target" validate:"gt=0"`
	Period string `json:"period" validate:"required,oneof=daily weekly monthly"`
}

type notificationRequest struct {
	UserID  *int64 `json:"user_id" validate:"omitempty,gt=0"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=info success warning promo"`
}

type profileRequest struct {
	FullName      string  `json:"full_name" validate:"required,max=200"`
	Phone         string  `json:"phone" validate:"max=32"`
	MonthlyIncome float64 `json:"monthly_income" validate:"gte=0"`
}

type statusResponse struct {
	Status string `json:"status"`
}
