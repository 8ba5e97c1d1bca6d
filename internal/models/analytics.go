package models

import "time"

type LedgerTotals struct {
	TotalUsers         int64 `json:"total_users"`
	PremiumUsers       int64 `json:"premium_users"`
	TotalTransactions  int64 `json:"total_transactions"`
	CoinsEarned        int64 `json:"coins_earned"`
	CoinsSpent         int64 `json:"coins_spent"`
	CoinsInCirculation int64 `json:"coins_in_circulation"`
	ActiveRules        int64 `json:"active_rules"`
}

type QuickStats struct {
	Since        time.Time `json:"since"`
	NewUsers     int64     `json:"new_users"`
	Transactions int64     `json:"transactions"`
	CoinsAwarded int64     `json:"coins_awarded"`
	ActiveUsers  int64     `json:"active_users"`
}

type ActivityItem struct {
	TransactionID   int64           `json:"transaction_id"`
	UserID          int64           `json:"user_id"`
	UserName        string          `json:"user_name"`
	Amount          int64           `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
}

type TopPerformer struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Balance  int64  `json:"balance"`
}

// SourceTotal is the sum of positive ledger amounts attributed to one source.
type SourceTotal struct {
	Source string `json:"source"`
	Amount int64  `json:"amount"`
}

type RevenueSource struct {
	Source     string  `json:"source"`
	Amount     int64   `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type RevenueBreakdown struct {
	Sources []RevenueSource `json:"sources"`
	Total   int64           `json:"total"`
}

type DailyPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type Forecast struct {
	Model     string       `json:"model"`
	Slope     float64      `json:"slope"`
	Intercept float64      `json:"intercept"`
	RSquared  float64      `json:"r_squared"`
	History   []DailyPoint `json:"history"`
	Forecast  []DailyPoint `json:"forecast"`
}

type UserSignup struct {
	UserID    int64
	CreatedAt time.Time
}

type UserActivity struct {
	UserID    int64
	CreatedAt time.Time
}

type Cohort struct {
	Cohort    string    `json:"cohort"`
	StartDate time.Time `json:"start_date"`
	Size      int       `json:"size"`
	Retention []float64 `json:"retention"`
}

type CohortSummary struct {
	TotalUsers            int     `json:"total_users"`
	CohortCount           int     `json:"cohort_count"`
	AverageWeek1Retention float64 `json:"average_week1_retention"`
}

type CohortAnalysis struct {
	Cohorts []Cohort      `json:"cohorts"`
	Summary CohortSummary `json:"summary"`
}
