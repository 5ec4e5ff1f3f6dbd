package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	directoryRepo "lockbox/database/repository/directory"
	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/lease"
	"lockbox/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestInput struct {
	ListingID       string    `json:"listingId"`
	HostID          string    `json:"hostId"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	PaymentMethodID string    `json:"paymentMethodId"`
	Currency        string    `json:"currency"`
	Amount          int64     `json:"amount"`
	TotalAmount     int64     `json:"totalAmount"`
	Tax             int64     `json:"tax"`
	ServiceFee      int64     `json:"serviceFee"`
	InsuranceID     string    `json:"insuranceId,omitempty"`
	// Content is the opening chat message to the host.
	Content string `json:"content,omitempty"`
}

// UnmarshalJSON reads startDate and endDate with ParseDate.
func (in *RequestInput) UnmarshalJSON(data []byte) error {
	type plain RequestInput
	aux := struct {
		*plain
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if in.StartDate, err = parseOptionalDate("startDate", aux.StartDate); err != nil {
		return err
	}
	in.EndDate, err = parseOptionalDate("endDate", aux.EndDate)
	return err
}

func (in RequestInput) validate(actor models.Actor) error {
	if actor.Role != models.RoleRent {
		return &ForbiddenError{Reason: "only renters can request bookings"}
	}
	required := []struct{ field, value string }{
		{"listingId", in.ListingID},
		{"hostId", in.HostID},
		{"paymentMethodId", in.PaymentMethodID},
		{"currency", in.Currency},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || !in.StartDate.Before(in.EndDate) {
		return &InvalidRangeError{Start: in.StartDate, End: in.EndDate}
	}
	if in.Amount < 0 || in.Tax < 0 || in.ServiceFee < 0 {
		return &ValidationError{Field: "amount", Message: "money fields cannot be negative"}
	}
	if in.TotalAmount <= 0 {
		return &ValidationError{Field: "totalAmount", Message: "must be positive"}
	}
	if in.HostID == actor.UserID {
		return &ValidationError{Field: "hostId", Message: "cannot book your own listing"}
	}
	return nil
}

// RequestBooking holds the renter's payment and records a (future, under_review)
// booking. The listing lease spans the availability check and the insert so no
// two requests can claim the same dates.
func (s *DefaultBookingService) RequestBooking(ctx context.Context, actor models.Actor, in RequestInput) (*models.Booking, error) {
	if err := in.validate(actor); err != nil {
		return nil, err
	}

	listing, err := s.Listings.GetListing(ctx, in.ListingID)
	if err != nil {
		if errors.Is(err, directoryRepo.ErrNotFound) {
			return nil, &NotFoundError{Resource: "listing", ID: in.ListingID}
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.HostID != in.HostID {
		return nil, &ValidationError{Field: "hostId", Message: "does not own this listing"}
	}

	release, err := s.lockListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	defer s.release(release, in.ListingID)

	avail, err := s.CheckAvailability(ctx, AvailabilityQuery{
		ListingID: in.ListingID,
		Start:     in.StartDate,
		End:       in.EndDate,
		Hold:      models.HoldRequested,
	})
	if err != nil {
		return nil, err
	}
	if avail.Conflict {
		return nil, &ConflictError{Reason: "listing is not available for the selected dates"}
	}

	now := s.Now()
	b := &models.Booking{
		ID:              uuid.New().String(),
		RenterID:        actor.UserID,
		HostID:          in.HostID,
		ListingID:       in.ListingID,
		Amount:          in.Amount,
		Tax:             in.Tax,
		ServiceFee:      in.ServiceFee,
		TotalAmount:     in.TotalAmount,
		Currency:        strings.ToLower(in.Currency),
		InsuranceID:     in.InsuranceID,
		PaymentMethodID: in.PaymentMethodID,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		TotalMonth:      TotalMonths(in.StartDate, in.EndDate),
		Type:            models.TypeFuture,
		Status:          models.StatusUnderReview,
		PhaseChangedAt:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	customerID, err := s.Users.StripeCustomerID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, directoryRepo.ErrNotFound) {
		return nil, fmt.Errorf("failed to load renter payment profile: %w", err)
	}

	payCtx, cancel := s.gatewayContext(ctx)
	txn, err := s.Payments.Authorize(payCtx, b, customerID)
	cancel()
	if err != nil {
		return nil, err
	}

	if err := s.Bookings.Create(ctx, b); err != nil {
		s.Logger.Error("booking insert failed after authorization",
			zap.String("booking_id", b.ID), zap.String("gateway_ref", txn.PaymentIntentID), zap.Error(err))
		s.voidHold(ctx, b, txn)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.Logger.Info("booking requested", zap.String("booking_id", b.ID),
		zap.String("listing_id", b.ListingID), zap.String("gateway_ref", txn.PaymentIntentID))

	s.notify(ctx, &models.Notification{
		BookingID: b.ID,
		ListingID: b.ListingID,
		UserID:    b.HostID,
		UserRole:  models.RoleHost,
		RenterID:  b.RenterID,
		HostID:    b.HostID,
		Type:      models.KindNewRequest,
		Title:     "New booking request",
		Body:      fmt.Sprintf("%s for storage in %s.", listing.SpaceType, listing.City),
		DedupKey:  notification.DedupKey(b.ID, models.KindNewRequest, b.HostID),
	})
	if s.Messenger != nil {
		if _, err := s.Messenger.BookingMessage(ctx, b.RenterID, b.HostID, b, in.Content); err != nil {
			s.Logger.Error("failed to post booking message", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
	s.publish(ctx, events.KeyBookingRequested, b)
	return b, nil
}

// voidHold releases the hold for a booking that was never stored. It runs
// even when ctx is already canceled.
func (s *DefaultBookingService) voidHold(ctx context.Context, b *models.Booking, auth *models.Transaction) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := s.Payments.Void(ctx, b, auth); err != nil {
		s.Logger.Error("authorization left open for unsaved booking", zap.String("booking_id", b.ID),
			zap.String("gateway_ref", auth.PaymentIntentID), zap.Error(err))
		return
	}
	s.Logger.Info("authorization released for unsaved booking", zap.String("booking_id", b.ID))
}

// lockListing takes the listing lease every booking write on the listing holds.
func (s *DefaultBookingService) lockListing(ctx context.Context, listingID string) (lease.Release, error) {
	release, err := s.Leases.Acquire(ctx, listingID)
	if err != nil {
		if errors.Is(err, lease.ErrHeld) {
			return nil, &ConflictError{Reason: "listing is being reserved by another request, try again"}
		}
		return nil, fmt.Errorf("failed to acquire listing lease: %w", err)
	}
	return release, nil
}

func (s *DefaultBookingService) release(release lease.Release, listingID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.Logger.Warn("failed to release listing lease", zap.String("listing_id", listingID), zap.Error(err))
	}
}
