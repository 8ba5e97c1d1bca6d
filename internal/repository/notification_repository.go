package repository

import (
	"context"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	// List returns notifications for userID plus broadcasts, or everything when userID is nil.
	List(ctx context.Context, userID *int64) ([]models.Notification, error)
	Update(ctx context.Context, n *models.Notification) error
	Delete(ctx context.Context, id int64) error
	MarkRead(ctx context.Context, id int64) error
}
