// Package memory holds process-local implementations of every repository,
// used by STORE_BACKEND=memory and by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingRepo "lockbox/database/repository/booking"
	"lockbox/models"

	"github.com/google/uuid"
)

type BookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{bookings: make(map[string]models.Booking)}
}

func (r *BookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	if b.PhaseChangedAt.IsZero() {
		b.PhaseChangedAt = b.CreatedAt
	}
	r.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepo) FindOverlapping(_ context.Context, q bookingRepo.OverlapQuery) ([]models.Booking, error) {
	return r.filter(q.Matches), nil
}

func (r *BookingRepo) Transition(_ context.Context, id string, guard models.PhaseGuard, update models.PhaseUpdate) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || !bookingRepo.GuardMatches(b, guard) {
		return nil, bookingRepo.ErrNoMatch
	}
	bookingRepo.Apply(&b, update)
	r.bookings[id] = b
	return &b, nil
}

func (r *BookingRepo) ForceDispute(_ context.Context, id string, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	bookingRepo.MarkDisputed(&b, at)
	r.bookings[id] = b
	return &b, nil
}

func (r *BookingRepo) Settle(_ context.Context, id string, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	bookingRepo.Apply(&b, models.PhaseUpdate{SettlePeriod: true, At: at})
	r.bookings[id] = b
	return &b, nil
}

func (r *BookingRepo) PromoteStarted(_ context.Context, now time.Time) ([]string, error) {
	return r.advance(func(b models.Booking) bool { return bookingRepo.IsPromotable(b, now) },
		models.PhaseUpdate{Type: models.TypeCurrent, At: now}), nil
}

func (r *BookingRepo) RetireEnded(_ context.Context, now, promotedBefore time.Time) ([]string, error) {
	return r.advance(func(b models.Booking) bool { return bookingRepo.IsRetirable(b, now, promotedBefore) },
		models.PhaseUpdate{Type: models.TypePast, At: now}), nil
}

func (r *BookingRepo) ListByPhase(_ context.Context, typ models.BookingType, status models.BookingStatus) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool { return b.Type == typ && b.Status == status }), nil
}

func (r *BookingRepo) ListEndingBetween(_ context.Context, typ models.BookingType, status models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.Type == typ && b.Status == status && !b.EndDate.Before(from) && !b.EndDate.After(to)
	}), nil
}

func (r *BookingRepo) ListForUser(_ context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	matched := r.filter(func(b models.Booking) bool {
		if f.Role == models.RoleHost {
			if b.HostID != f.UserID {
				return false
			}
		} else if b.RenterID != f.UserID {
			return false
		}
		return f.Type == "" || b.Type == f.Type
	})
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return page(matched, f.Skip(), f.Limit), int64(len(matched)), nil
}

func (r *BookingRepo) advance(match func(models.Booking) bool, update models.PhaseUpdate) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, b := range r.bookings {
		if !match(b) {
			continue
		}
		bookingRepo.Apply(&b, update)
		r.bookings[id] = b
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *BookingRepo) filter(match func(models.Booking) bool) []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
