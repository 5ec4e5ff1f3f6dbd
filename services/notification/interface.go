package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	notificationRepo "lockbox/database/repository/notification"
	"lockbox/models"
	"lockbox/services/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicateNotification means an equivalent notification was already emitted.
var ErrDuplicateNotification = errors.New("notification already emitted")

// NotificationService persists user-facing notifications. Delivery (push, email)
// is handled by consumers of the notification.created event.
type NotificationService interface {
	Emit(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID string, page, limit int) ([]models.Notification, models.Pagination, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type DefaultNotificationService struct {
	Repo   notificationRepo.NotificationRepository
	Events events.Publisher
	Logger *zap.Logger
	Now    func() time.Time
}

func NewDefaultNotificationService(repo notificationRepo.NotificationRepository, pub events.Publisher, logger *zap.Logger) (*DefaultNotificationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification service initialization error: repository is nil")
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{Repo: repo, Events: pub, Logger: logger, Now: time.Now}, nil
}

// DedupKey joins the identity of a notification. Two notifications with the
// same key are the same notification.
func DedupKey(bookingID string, kind models.NotificationKind, userID string, extra ...string) string {
	parts := append([]string{bookingID, kind.String(), userID}, extra...)
	return strings.Join(parts, "|")
}

// Emit stores n once per dedup key and announces it on the event bus. A
// caller-supplied key is looked up first; the unique index on dedupKey
// settles concurrent emits.
func (s *DefaultNotificationService) Emit(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notification has no recipient")
	}
	if n.DedupKey == "" {
		n.DedupKey = DedupKey(n.BookingID, n.Type, n.UserID, uuid.New().String())
	} else {
		_, err := s.Repo.GetByDedupKey(ctx, n.DedupKey)
		switch {
		case err == nil:
			return ErrDuplicateNotification
		case !errors.Is(err, notificationRepo.ErrNotFound):
			return fmt.Errorf("failed to look up notification %s: %w", n.DedupKey, err)
		}
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	n.CreatedAt, n.UpdatedAt = now, now

	if err := s.Repo.Create(ctx, n); err != nil {
		if errors.Is(err, notificationRepo.ErrDuplicate) {
			return ErrDuplicateNotification
		}
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if err := s.Events.Publish(ctx, events.KeyNotificationCreated, n); err != nil {
		// the row is the source of truth; consumers can backfill from it
		s.Logger.Warn("failed to publish notification event",
			zap.String("notification_id", n.ID), zap.String("booking_id", n.BookingID), zap.Error(err))
	}
	s.Logger.Debug("notification emitted",
		zap.String("notification_id", n.ID), zap.String("user_id", n.UserID), zap.String("kind", n.Type.String()))
	return nil
}

func (s *DefaultNotificationService) List(ctx context.Context, userID string, page, limit int) ([]models.Notification, models.Pagination, error) {
	items, total, err := s.Repo.ListForUser(ctx, userID, page, limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, models.NewPagination(total, page, limit), nil
}

func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.Repo.MarkRead(ctx, userID, id)
}
