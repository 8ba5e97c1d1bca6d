package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"go.opentelemetry.io/otel/attribute"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Upsert(ctx context.Context, alert *models.Alert) (err error) {
	ctx, done := instrument(ctx, "UpsertAlert", attribute.String("key", alert.Key))
	defer func() { done(err) }()

	query := `INSERT INTO alerts (key, type, title, message, severity) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (key) DO NOTHING`
	_, err = r.db.ExecContext(ctx, query, alert.Key, string(alert.Type), alert.Title, alert.Message, alert.Severity)
	if err != nil {
		slog.Error("failed to upsert alert", "method", "Upsert", "key", alert.Key, "error", err)
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	return nil
}

func (r *AlertRepository) ListActive(ctx context.Context, limit int) (alerts []models.Alert, err error) {
	ctx, done := instrument(ctx, "ListActiveAlerts")
	defer func() { done(err) }()

	query := `SELECT id, key, type, title, message, severity, created_at FROM alerts WHERE dismissed_at IS NULL ORDER BY created_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Error("failed to list alerts", "method", "ListActive", "error", err)
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts = make([]models.Alert, 0)
	for rows.Next() {
		var a models.Alert
		if err = rows.Scan(&a.ID, &a.Key, &a.Type, &a.Title, &a.Message, &a.Severity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}

func (r *AlertRepository) Dismiss(ctx context.Context, id int64) (err error) {
	ctx, done := instrument(ctx, "DismissAlert", attribute.Int64("alert_id", id))
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET dismissed_at = NOW() WHERE id = $1 AND dismissed_at IS NULL`, id)
	if err != nil {
		slog.Error("failed to dismiss alert", "method", "Dismiss", "alert_id", id, "error", err)
		return fmt.Errorf("failed to dismiss alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.Info("alert already dismissed or unknown", "method", "Dismiss", "alert_id", id)
		return nil
	}
	slog.Info("alert dismissed", "method", "Dismiss", "alert_id", id)
	return nil
}
