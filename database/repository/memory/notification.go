package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	notificationRepo "lockbox/database/repository/notification"
	"lockbox/models"

	"github.com/google/uuid"
)

type NotificationRepo struct {
	mu    sync.Mutex
	items []models.Notification
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{}
}

func (r *NotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if n.DedupKey != "" && existing.DedupKey == n.DedupKey {
			return notificationRepo.ErrDuplicate
		}
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	r.items = append(r.items, *n)
	return nil
}

func (r *NotificationRepo) GetByDedupKey(_ context.Context, key string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.DedupKey == key {
			return &n, nil
		}
	}
	return nil, notificationRepo.ErrNotFound
}

func (r *NotificationRepo) ListForUser(_ context.Context, userID string, pageNum, limit int) ([]models.Notification, int64, error) {
	r.mu.Lock()
	var out []models.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	skip := 0
	if pageNum > 1 {
		skip = (pageNum - 1) * limit
	}
	return page(out, skip, limit), int64(len(out)), nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.items {
		if n.ID == id && n.UserID == userID {
			r.items[i].Read = true
			r.items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return notificationRepo.ErrNotFound
}

// All returns every stored notification in insertion order.
func (r *NotificationRepo) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.items...)
}
