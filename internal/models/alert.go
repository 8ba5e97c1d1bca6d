package models

import "time"

type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

type Alert struct {
	ID          int64      `json:"id"`
	Key         string     `json:"-"`
	Type        AlertType  `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Severity    string     `json:"severity,omitempty"`
	DismissedAt *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}
