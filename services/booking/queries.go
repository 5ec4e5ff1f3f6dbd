package booking

import (
	"context"
	"fmt"

	"lockbox/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListQuery pages through the actor's bookings as renter or as host.
type ListQuery struct {
	As    models.Role
	Type  string
	Page  int
	Limit int
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	return s.load(ctx, actor, bookingID)
}

func (s *DefaultBookingService) ListBookings(ctx context.Context, actor models.Actor, q ListQuery) ([]models.Booking, models.Pagination, error) {
	if q.As != models.RoleHost && q.As != models.RoleRent {
		return nil, models.Pagination{}, &ValidationError{Field: "role", Message: "must be host or rent"}
	}
	filter := models.BookingFilter{UserID: actor.UserID, Role: q.As, Page: q.Page, Limit: q.Limit}
	if q.Type != "" {
		typ, ok := models.ParseBookingType(q.Type)
		if !ok {
			return nil, models.Pagination{}, &ValidationError{Field: "type", Message: "must be one of future, current, past, dispute"}
		}
		filter.Type = typ
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	bookings, total, err := s.Bookings.ListForUser(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, models.NewPagination(total, filter.Page, filter.Limit), nil
}

func (s *DefaultBookingService) ListDisputes(ctx context.Context, actor models.Actor, bookingID string) ([]models.Dispute, error) {
	if _, err := s.load(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	disputes, err := s.Disputes.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	return disputes, nil
}

func (s *DefaultBookingService) ListCheckIns(ctx context.Context, actor models.Actor, bookingID string) ([]models.CheckIn, error) {
	if _, err := s.load(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	checkIns, err := s.CheckIns.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return checkIns, nil
}
