package notificationRepo

import (
	"context"
	"errors"

	"lockbox/models"
)

var (
	ErrNotFound  = errors.New("notification not found")
	ErrDuplicate = errors.New("notification already emitted")
)

// NotificationRepository is append-only apart from read receipts.
type NotificationRepository interface {
	// Create fails with ErrDuplicate when a notification with the same dedup key exists.
	Create(ctx context.Context, n *models.Notification) error
	GetByDedupKey(ctx context.Context, key string) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string, page, limit int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}
