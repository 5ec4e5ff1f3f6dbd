package bookingRepo

import (
	"testing"
	"time"

	"lockbox/models"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

func TestOverlapQueryMatches(t *testing.T) {
	b := models.Booking{ID: "b1", ListingID: "l1", StartDate: day(10), EndDate: day(20), Status: models.StatusApprove}
	q := OverlapQuery{ListingID: "l1", Start: day(15), End: day(25)}

	assert.True(t, q.Matches(b))
	assert.False(t, OverlapQuery{ListingID: "l1", Start: day(20), End: day(25)}.Matches(b), "end is exclusive")
	assert.False(t, OverlapQuery{ListingID: "l2", Start: day(15), End: day(25)}.Matches(b))

	q.ExcludeID = "b1"
	assert.False(t, q.Matches(b))

	q.ExcludeID = ""
	q.Statuses = []models.BookingStatus{models.StatusUnderReview}
	assert.False(t, q.Matches(b))
	q.Statuses = append(q.Statuses, models.StatusApprove)
	assert.True(t, q.Matches(b))
}

func TestSweepConditions(t *testing.T) {
	now := day(15).Add(12 * time.Hour)
	future := models.Booking{Type: models.TypeFuture, Status: models.StatusApprove, StartDate: day(15), EndDate: day(20)}
	assert.True(t, IsPromotable(future, now))

	future.Status = models.StatusUnderReview
	assert.False(t, IsPromotable(future, now))

	current := models.Booking{Type: models.TypeCurrent, Status: models.StatusApprove, EndDate: day(14), PhaseChangedAt: day(13)}
	assert.True(t, IsRetirable(current, now, day(15)))

	current.PhaseChangedAt = day(15).Add(time.Hour)
	assert.False(t, IsRetirable(current, now, day(15)), "promoted today stays current")
}

func TestGuardAndApply(t *testing.T) {
	b := models.Booking{Type: models.TypeFuture, Status: models.StatusUnderReview}
	assert.True(t, GuardMatches(b, models.PhaseGuard{}))
	assert.True(t, GuardMatches(b, models.PhaseGuard{Type: models.TypeFuture, Status: models.StatusUnderReview}))
	assert.False(t, GuardMatches(b, models.PhaseGuard{Status: models.StatusApprove}))

	at := day(2)
	Apply(&b, models.PhaseUpdate{Status: models.StatusApprove, SettlePeriod: true, At: at})
	assert.Equal(t, models.StatusApprove, b.Status)
	assert.Equal(t, 1, b.TotalPaidMonthRent)
	assert.Equal(t, 1, b.TotalPaidMonthHost)
	assert.True(t, b.PhaseChangedAt.IsZero(), "status-only update keeps the phase stamp")

	Apply(&b, models.PhaseUpdate{Type: models.TypeCurrent, At: at})
	assert.Equal(t, at, b.PhaseChangedAt)
	assert.Equal(t, at, b.UpdatedAt)
}

func TestOverlapQueryHold(t *testing.T) {
	tests := []struct {
		name               string
		b                  models.Booking
		requested, settled bool
	}{
		{"pending", models.Booking{Type: models.TypeFuture, Status: models.StatusUnderReview}, true, false},
		{"approved", models.Booking{Type: models.TypeFuture, Status: models.StatusApprove}, true, true},
		{"rejected", models.Booking{Type: models.TypeFuture, Status: models.StatusReject}, false, false},
		{"disputed after approval", models.Booking{Type: models.TypeDispute, Status: models.StatusUnderReview, DisputedFrom: models.StatusApprove}, true, true},
		{"disputed after rejection", models.Booking{Type: models.TypeDispute, Status: models.StatusUnderReview, DisputedFrom: models.StatusReject}, false, false},
		{"disputed while pending", models.Booking{Type: models.TypeDispute, Status: models.StatusUnderReview, DisputedFrom: models.StatusUnderReview}, false, false},
		{"disputed with unknown origin", models.Booking{Type: models.TypeDispute, Status: models.StatusUnderReview}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.b
			b.ListingID, b.StartDate, b.EndDate = "l1", day(10), day(20)
			q := OverlapQuery{ListingID: "l1", Start: day(12), End: day(14)}
			assert.True(t, q.Matches(b))

			q.Hold = models.HoldRequested
			assert.Equal(t, tt.requested, q.Matches(b))
			q.Hold = models.HoldCommitted
			assert.Equal(t, tt.settled, q.Matches(b))
		})
	}
}

func TestMarkDisputedKeepsFirstOrigin(t *testing.T) {
	at := day(15)
	b := models.Booking{Type: models.TypeFuture, Status: models.StatusReject}

	MarkDisputed(&b, at)
	assert.Equal(t, models.TypeDispute, b.Type)
	assert.Equal(t, models.StatusUnderReview, b.Status)
	assert.Equal(t, models.StatusReject, b.DisputedFrom)

	MarkDisputed(&b, at.Add(time.Hour))
	assert.Equal(t, models.StatusReject, b.DisputedFrom)
	assert.Equal(t, at.Add(time.Hour), b.UpdatedAt)
}
