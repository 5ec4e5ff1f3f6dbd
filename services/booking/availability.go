package booking

import (
	"context"
	"fmt"
	"time"

	bookingRepo "lockbox/database/repository/booking"
	"lockbox/models"
)

// AvailabilityQuery asks whether [Start, End) on a listing is free. Only
// bookings that keep their dates under Hold count; an empty Hold counts every booking.
type AvailabilityQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
	Hold      models.DateHold
	ExcludeID string
}

type Availability struct {
	Conflict  bool             `json:"conflict"`
	Available bool             `json:"available"`
	Conflicts []models.Booking `json:"-"`
}

// CheckAvailability is advisory on its own; writers hold the listing lease around it.
func CheckAvailability(ctx context.Context, repo bookingRepo.BookingRepository, q AvailabilityQuery) (*Availability, error) {
	if q.ListingID == "" {
		return nil, &ValidationError{Field: "listingId", Message: "is required"}
	}
	if q.Start.IsZero() || q.End.IsZero() || !q.Start.Before(q.End) {
		return nil, &InvalidRangeError{Start: q.Start, End: q.End}
	}

	found, err := repo.FindOverlapping(ctx, bookingRepo.OverlapQuery{
		ListingID: q.ListingID,
		Start:     q.Start,
		End:       q.End,
		Hold:      q.Hold,
		ExcludeID: q.ExcludeID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	return &Availability{Conflict: len(found) > 0, Available: len(found) == 0, Conflicts: found}, nil
}
