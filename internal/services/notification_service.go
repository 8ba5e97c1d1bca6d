package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func validateNotification(n *models.Notification) error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", pkgerrors.ErrValidation)
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown notification type %q", pkgerrors.ErrValidation, n.Type)
	}
	return nil
}

func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	ctx, span := tracer.Start(ctx, "CreateNotification")
	defer span.End()

	if err := validateNotification(n); err != nil {
		recordError(span, err, "invalid notification")
		return err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		recordError(span, err, "create failed")
		return err
	}
	slog.Info("notification created", "method", "CreateNotification", "notification_id", n.ID)
	return nil
}

// List returns what viewer may see: everything for a nil viewer, otherwise the viewer's own
// notifications plus broadcasts.
func (s *NotificationService) List(ctx context.Context, viewer *int64) ([]models.Notification, error) {
	ctx, span := tracer.Start(ctx, "ListNotifications")
	defer span.End()
	return s.repo.List(ctx, viewer)
}

func (s *NotificationService) Get(ctx context.Context, id int64, viewer *int64) (*models.Notification, error) {
	ctx, span := tracer.Start(ctx, "GetNotification")
	defer span.End()

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(n, viewer) {
		return nil, pkgerrors.ErrNotificationNotFound
	}
	return n, nil
}

func visible(n *models.Notification, viewer *int64) bool {
	return viewer == nil || n.UserID == nil || *n.UserID == *viewer
}

func (s *NotificationService) Update(ctx context.Context, n *models.Notification) error {
	ctx, span := tracer.Start(ctx, "UpdateNotification")
	defer span.End()

	if err := validateNotification(n); err != nil {
		recordError(span, err, "invalid notification")
		return err
	}
	if err := s.repo.Update(ctx, n); err != nil {
		recordError(span, err, "update failed")
		return err
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "DeleteNotification")
	defer span.End()
	return s.repo.Delete(ctx, id)
}

func (s *NotificationService) MarkRead(ctx context.Context, id int64, viewer *int64) error {
	ctx, span := tracer.Start(ctx, "MarkNotificationRead")
	defer span.End()

	if _, err := s.Get(ctx, id, viewer); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id)
}
