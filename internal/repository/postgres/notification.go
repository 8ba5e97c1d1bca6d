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

const notificationColumns = `id, user_id, title, message, type, is_read, created_at`

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (err error) {
	ctx, done := instrument(ctx, "CreateNotification")
	defer func() { done(err) }()

	query := `INSERT INTO notifications (user_id, title, message, type, is_read) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, n.UserID, n.Title, n.Message, string(n.Type), n.IsRead).Scan(&n.ID, &n.CreatedAt)
	if isForeignKeyViolation(err) {
		err = pkgerrors.ErrUnknownUser
		return err
	}
	if err != nil {
		slog.Error("failed to create notification", "method", "Create", "error", err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (n *models.Notification, err error) {
	ctx, done := instrument(ctx, "GetNotificationByID", attribute.Int64("notification_id", id))
	defer func() { done(err) }()

	n, err = scanNotification(r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrNotificationNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) List(ctx context.Context, userID *int64) (list []models.Notification, err error) {
	ctx, done := instrument(ctx, "ListNotifications")
	defer func() { done(err) }()

	var rows *sql.Rows
	if userID == nil {
		rows, err = r.db.QueryContext(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC, id DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 OR user_id IS NULL ORDER BY created_at DESC, id DESC`, *userID)
	}
	if err != nil {
		slog.Error("failed to list notifications", "method", "List", "error", err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	list = make([]models.Notification, 0)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan notification: %w", scanErr)
			return nil, err
		}
		list = append(list, *n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return list, nil
}

func (r *NotificationRepository) Update(ctx context.Context, n *models.Notification) (err error) {
	ctx, done := instrument(ctx, "UpdateNotification", attribute.Int64("notification_id", n.ID))
	defer func() { done(err) }()

	query := `UPDATE notifications SET user_id = $1, title = $2, message = $3, type = $4, is_read = $5 WHERE id = $6 RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query, n.UserID, n.Title, n.Message, string(n.Type), n.IsRead, n.ID).Scan(&n.CreatedAt)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		err = pkgerrors.ErrNotificationNotFound
		return err
	case isForeignKeyViolation(err):
		err = pkgerrors.ErrUnknownUser
		return err
	case err != nil:
		slog.Error("failed to update notification", "method", "Update", "notification_id", n.ID, "error", err)
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := instrument(ctx, "DeleteNotification", attribute.Int64("notification_id", id))
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrNotificationNotFound
		return err
	}
	return nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) (err error) {
	ctx, done := instrument(ctx, "MarkNotificationRead", attribute.Int64("notification_id", id))
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrNotificationNotFound
		return err
	}
	return nil
}

func scanNotification(row scanner) (*models.Notification, error) {
	var (
		n      models.Notification
		userID sql.NullInt64
	)
	if err := row.Scan(&n.ID, &userID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		n.UserID = &id
	}
	return &n, nil
}
