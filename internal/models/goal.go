package models

import "time"

type GoalMetric string

const (
	MetricCoinsAwarded   GoalMetric = "coins_awarded"
	MetricNewUsers       GoalMetric = "new_users"
	MetricTransactions   GoalMetric = "transactions"
	MetricActiveUsers    GoalMetric = "active_users"
	MetricPremiumMembers GoalMetric = "premium_members"
)

func (m GoalMetric) Valid() bool {
	switch m {
	case MetricCoinsAwarded, MetricNewUsers, MetricTransactions, MetricActiveUsers, MetricPremiumMembers:
		return true
	}
	return false
}

type GoalPeriod string

const (
	PeriodDaily   GoalPeriod = "daily"
	PeriodWeekly  GoalPeriod = "weekly"
	PeriodMonthly GoalPeriod = "monthly"
)

func (p GoalPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type Goal struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Metric    GoalMetric `json:"metric"`
	Target    int64      `json:"target"`
	Period    GoalPeriod `json:"period"`
	CreatedAt time.Time  `json:"created_at"`
}

type GoalProgress struct {
	Goal
	Current  int64   `json:"current"`
	Progress float64 `json:"progress"`
	Achieved bool    `json:"achieved"`
}

type Achievements struct {
	Achieved int `json:"achieved"`
	Total    int `json:"total"`
}

type GoalReport struct {
	Goals        []GoalProgress `json:"goals"`
	Achievements Achievements   `json:"achievements"`
}
