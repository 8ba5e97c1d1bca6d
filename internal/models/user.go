package models

import "time"

type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone,omitempty"`
	MonthlyIncome   float64   `json:"monthly_income"`
	IsPremiumMember bool      `json:"is_premium_member"`
	IsAdmin         bool      `json:"is_admin"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProfileUpdate carries the fields a user may change on their own profile.
type ProfileUpdate struct {
	FullName      string
	Phone         string
	MonthlyIncome float64
}

type PremiumStatus struct {
	UserID          int64 `json:"user_id"`
	IsPremiumMember bool  `json:"is_premium_member"`
}
