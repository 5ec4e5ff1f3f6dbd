package booking

import (
	"context"
	"testing"
	"time"

	"lockbox/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailabilityHalfOpenIntervals(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.Booking{ID: "a", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusApprove})
	ctx := context.Background()

	overlapping, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ListingID: "listing-1", Start: day(6, 5), End: day(6, 15)})
	require.NoError(t, err)
	assert.True(t, overlapping.Conflict)
	assert.False(t, overlapping.Available)

	touching, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ListingID: "listing-1", Start: day(6, 10), End: day(6, 20)})
	require.NoError(t, err)
	assert.False(t, touching.Conflict)

	before, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ListingID: "listing-1", Start: day(5, 25), End: day(6, 1)})
	require.NoError(t, err)
	assert.False(t, before.Conflict)

	otherListing, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ListingID: "listing-2", Start: day(6, 5), End: day(6, 15)})
	require.NoError(t, err)
	assert.False(t, otherListing.Conflict)
}

func TestCheckAvailabilityStatusFilter(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.Booking{ID: "rejected", StartDate: day(6, 1), EndDate: day(6, 10), Type: models.TypeFuture, Status: models.StatusReject})
	ctx := context.Background()

	all, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ListingID: "listing-1", Start: day(6, 2), End: day(6, 3)})
	require.NoError(t, err)
	assert.True(t, all.Conflict)

	blocking, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{
		ListingID: "listing-1", Start: day(6, 2), End: day(6, 3), Hold: models.HoldRequested,
	})
	require.NoError(t, err)
	assert.False(t, blocking.Conflict)
}

func TestCheckAvailabilityInvalidRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"equal", day(6, 1), day(6, 1)},
		{"reversed", day(6, 10), day(6, 1)},
		{"missing start", time.Time{}, day(6, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CheckAvailability(ctx, AvailabilityQuery{ListingID: "listing-1", Start: tt.start, End: tt.end})
			var rangeErr *InvalidRangeError
			assert.ErrorAs(t, err, &rangeErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTotalMonths(t *testing.T) {
	tests := []struct {
		start, end time.Time
		want       int
	}{
		{day(6, 1), day(6, 10), 1},
		{day(6, 1), day(7, 1), 1},
		{day(6, 1), day(7, 2), 2},
		{day(6, 15), day(7, 10), 1},
		{day(1, 31), day(3, 1), 2},
		{day(1, 1), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 12},
		{day(6, 10), day(6, 1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalMonths(tt.start, tt.end), "%s..%s", tt.start.Format("2006-01-02"), tt.end.Format("2006-01-02"))
	}
}
