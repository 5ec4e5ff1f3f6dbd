package bookingRepo

import (
	"context"
	"errors"
	"time"

	"lockbox/models"
)

var (
	ErrNotFound = errors.New("booking not found")
	// ErrNoMatch means the booking exists but no longer satisfies the transition guard.
	ErrNoMatch = errors.New("booking does not match transition guard")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	FindOverlapping(ctx context.Context, q OverlapQuery) ([]models.Booking, error)
	// Transition applies update only while the booking still matches guard.
	Transition(ctx context.Context, id string, guard models.PhaseGuard, update models.PhaseUpdate) (*models.Booking, error)
	// ForceDispute moves the booking to (dispute, under_review) whatever its state,
	// recording the status it left on the first dispute.
	ForceDispute(ctx context.Context, id string, at time.Time) (*models.Booking, error)
	// Settle counts one paid period on both sides whatever the booking's state.
	Settle(ctx context.Context, id string, at time.Time) (*models.Booking, error)
	PromoteStarted(ctx context.Context, now time.Time) ([]string, error)
	RetireEnded(ctx context.Context, now, promotedBefore time.Time) ([]string, error)
	ListByPhase(ctx context.Context, typ models.BookingType, status models.BookingStatus) ([]models.Booking, error)
	ListEndingBetween(ctx context.Context, typ models.BookingType, status models.BookingStatus, from, to time.Time) ([]models.Booking, error)
	ListForUser(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error)
}

// OverlapQuery selects bookings on a listing whose interval intersects [Start, End).
// An empty Statuses matches every status; an empty Hold matches every booking.
type OverlapQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
	Statuses  []models.BookingStatus
	Hold      models.DateHold
	ExcludeID string
}

func (q OverlapQuery) Matches(b models.Booking) bool {
	if b.ListingID != q.ListingID || (q.ExcludeID != "" && b.ID == q.ExcludeID) {
		return false
	}
	if !b.Overlaps(q.Start, q.End) || !b.Holds(q.Hold) {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// IsPromotable is the future→current sweep condition.
func IsPromotable(b models.Booking, now time.Time) bool {
	return b.Type == models.TypeFuture && b.Status == models.StatusApprove && !b.StartDate.After(now)
}

// IsRetirable is the current→past sweep condition. Bookings promoted at or
// after promotedBefore stay current until a later sweep day.
func IsRetirable(b models.Booking, now, promotedBefore time.Time) bool {
	return b.Type == models.TypeCurrent && b.Status == models.StatusApprove &&
		b.EndDate.Before(now) && b.PhaseChangedAt.Before(promotedBefore)
}

// GuardMatches reports whether b satisfies g. Empty guard fields match anything.
func GuardMatches(b models.Booking, g models.PhaseGuard) bool {
	if g.Type != "" && b.Type != g.Type {
		return false
	}
	if g.Status != "" && b.Status != g.Status {
		return false
	}
	return true
}

// MarkDisputed mutates b the way ForceDispute does.
func MarkDisputed(b *models.Booking, at time.Time) {
	if b.Type != models.TypeDispute {
		b.DisputedFrom = b.Status
	}
	Apply(b, models.PhaseUpdate{Type: models.TypeDispute, Status: models.StatusUnderReview, At: at})
}

// Apply mutates b with u the way the store does.
func Apply(b *models.Booking, u models.PhaseUpdate) {
	if u.Type != "" {
		if u.Type != b.Type {
			b.PhaseChangedAt = u.At
		}
		b.Type = u.Type
	}
	if u.Status != "" {
		b.Status = u.Status
	}
	if u.SettlePeriod {
		b.TotalPaidMonthRent++
		b.TotalPaidMonthHost++
	}
	b.UpdatedAt = u.At
}
