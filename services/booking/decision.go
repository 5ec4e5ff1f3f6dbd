package booking

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "lockbox/database/repository/booking"
	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/notification"

	"go.uber.org/zap"
)

var pendingDecision = models.PhaseGuard{Type: models.TypeFuture, Status: models.StatusUnderReview}

// UpdateStatus applies the host's approve or reject decision. Approval captures
// the held payment before the booking changes; counters move with the same write.
func (s *DefaultBookingService) UpdateStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if status != models.StatusApprove && status != models.StatusReject {
		return nil, &ValidationError{Field: "status", Message: "must be approve or reject"}
	}
	b, err := s.load(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleHost {
		return nil, &ForbiddenError{Reason: "only the host can decide a booking"}
	}
	if b.Status == status {
		return b, nil
	}
	if !bookingRepo.GuardMatches(*b, pendingDecision) {
		return nil, &TransitionError{From: stateOf(b), Event: string(status)}
	}

	if status == models.StatusReject {
		return s.reject(ctx, b)
	}
	return s.approve(ctx, b)
}

func (s *DefaultBookingService) reject(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	release, err := s.lockListing(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	defer s.release(release, b.ListingID)

	updated, err := s.Bookings.Transition(ctx, b.ID, pendingDecision, models.PhaseUpdate{
		Status: models.StatusReject,
		At:     s.Now(),
	})
	if err != nil {
		return s.lostRace(ctx, b, models.StatusReject, err)
	}
	s.Logger.Info("booking rejected", zap.String("booking_id", b.ID))
	s.announceDecision(ctx, updated)
	s.publish(ctx, events.KeyBookingRejected, updated)
	return updated, nil
}

// approve holds the listing lease from the overlap check through the status
// write. Disputes and rejections take the same lease, so the booking cannot
// leave review between the capture and the write.
func (s *DefaultBookingService) approve(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	release, err := s.lockListing(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	defer s.release(release, b.ListingID)

	avail, err := s.CheckAvailability(ctx, AvailabilityQuery{
		ListingID: b.ListingID,
		Start:     b.StartDate,
		End:       b.EndDate,
		Hold:      models.HoldCommitted,
		ExcludeID: b.ID,
	})
	if err != nil {
		return nil, err
	}
	if avail.Conflict {
		return nil, &ConflictError{Reason: "another approved booking already holds these dates"}
	}

	payCtx, cancel := s.gatewayContext(ctx)
	txn, err := s.Payments.Capture(payCtx, b)
	cancel()
	if err != nil {
		return nil, err
	}

	updated, err := s.Bookings.Transition(ctx, b.ID, pendingDecision, models.PhaseUpdate{
		Status:       models.StatusApprove,
		SettlePeriod: true,
		At:           s.Now(),
	})
	if errors.Is(err, bookingRepo.ErrNoMatch) {
		return s.settleCaptured(ctx, b, txn)
	}
	if err != nil {
		s.Logger.Error("payment captured but booking not approved",
			zap.String("booking_id", b.ID), zap.String("gateway_ref", txn.PaymentIntentID), zap.Error(err))
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	s.Logger.Info("booking approved", zap.String("booking_id", b.ID),
		zap.String("listing_id", b.ListingID), zap.String("gateway_ref", txn.PaymentIntentID))
	s.announceDecision(ctx, updated)
	s.publish(ctx, events.KeyBookingApproved, updated)
	return updated, nil
}

// settleCaptured runs when the booking left review after its payment was
// captured, which only happens if the lease expired mid-approval. The capture
// stands, so the paid period is counted on whatever state won.
func (s *DefaultBookingService) settleCaptured(ctx context.Context, b *models.Booking, txn *models.Transaction) (*models.Booking, error) {
	current, err := s.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", err)
	}
	if current.Status == models.StatusApprove {
		return current, nil
	}
	settled, err := s.Bookings.Settle(ctx, b.ID, s.Now())
	if err != nil {
		s.Logger.Error("payment captured but period not settled", zap.String("booking_id", b.ID),
			zap.String("gateway_ref", txn.PaymentIntentID), zap.Error(err))
		return nil, fmt.Errorf("failed to settle captured booking: %w", err)
	}
	s.Logger.Warn("payment captured after booking left review", zap.String("booking_id", b.ID),
		zap.String("state", stateOf(settled)), zap.String("gateway_ref", txn.PaymentIntentID))
	return settled, nil
}

// lostRace resolves a guard miss: a concurrent identical decision is success,
// anything else is reported against the state that won.
func (s *DefaultBookingService) lostRace(ctx context.Context, b *models.Booking, status models.BookingStatus, err error) (*models.Booking, error) {
	if !errors.Is(err, bookingRepo.ErrNoMatch) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	current, getErr := s.Bookings.GetByID(ctx, b.ID)
	if getErr != nil {
		return nil, fmt.Errorf("failed to reload booking: %w", getErr)
	}
	if current.Status == status {
		return current, nil
	}
	return nil, &TransitionError{From: stateOf(current), Event: string(status)}
}

func (s *DefaultBookingService) announceDecision(ctx context.Context, b *models.Booking) {
	verb := "approved"
	if b.Status == models.StatusReject {
		verb = "declined"
	}
	s.notify(ctx, &models.Notification{
		BookingID: b.ID,
		ListingID: b.ListingID,
		UserID:    b.RenterID,
		UserRole:  models.RoleRent,
		RenterID:  b.RenterID,
		HostID:    b.HostID,
		Type:      models.KindDecision,
		Title:     "Booking " + verb,
		Body: fmt.Sprintf("Your booking from %s to %s was %s by the host.",
			b.StartDate.Format("Jan 02, 2006"), b.EndDate.Format("Jan 02, 2006"), verb),
		DedupKey: notification.DedupKey(b.ID, models.KindDecision, b.RenterID, string(b.Status)),
	})
}
