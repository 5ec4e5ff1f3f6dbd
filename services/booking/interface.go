package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "lockbox/database/repository/booking"
	directoryRepo "lockbox/database/repository/directory"
	recordsRepo "lockbox/database/repository/records"
	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/lease"
	"lockbox/services/notification"

	"go.uber.org/zap"
)

// BookingService is the booking lifecycle as seen by request handlers. Every
// operation takes the authenticated Actor and checks it against the booking.
type BookingService interface {
	CheckAvailability(ctx context.Context, q AvailabilityQuery) (*Availability, error)
	RequestBooking(ctx context.Context, actor models.Actor, in RequestInput) (*models.Booking, error)
	UpdateStatus(ctx context.Context, actor models.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error)
	FileDispute(ctx context.Context, actor models.Actor, in DisputeInput) (*models.Dispute, error)
	FileCheckIn(ctx context.Context, actor models.Actor, in CheckInInput) (*models.CheckIn, error)
	GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, actor models.Actor, q ListQuery) ([]models.Booking, models.Pagination, error)
	ListDisputes(ctx context.Context, actor models.Actor, bookingID string) ([]models.Dispute, error)
	ListCheckIns(ctx context.Context, actor models.Actor, bookingID string) ([]models.CheckIn, error)
}

// PaymentOrchestrator is the part of payment.Orchestrator bookings depend on.
type PaymentOrchestrator interface {
	Authorize(ctx context.Context, b *models.Booking, customerID string) (*models.Transaction, error)
	Capture(ctx context.Context, b *models.Booking) (*models.Transaction, error)
	Void(ctx context.Context, b *models.Booking, auth *models.Transaction) (*models.Transaction, error)
}

// Messenger posts the booking's opening chat message.
type Messenger interface {
	BookingMessage(ctx context.Context, from, to string, b *models.Booking, content string) (*models.Message, error)
}

type DefaultBookingService struct {
	Bookings      bookingRepo.BookingRepository
	Disputes      recordsRepo.DisputeRepository
	CheckIns      recordsRepo.CheckInRepository
	Payments      PaymentOrchestrator
	Leases        lease.Locker
	Notifications notification.NotificationService
	Messenger     Messenger
	Users         directoryRepo.UserDirectory
	Listings      directoryRepo.ListingDirectory
	Events        events.Publisher
	Logger        *zap.Logger
	Now           func() time.Time
	// GatewayTimeout bounds each gateway call made while the listing lease
	// is held. It must be shorter than the lease TTL; zero leaves ctx as is.
	GatewayTimeout time.Duration
}

// NewDefaultBookingService checks required collaborators and fills optional ones.
func NewDefaultBookingService(s DefaultBookingService) (*DefaultBookingService, error) {
	switch {
	case s.Bookings == nil:
		return nil, fmt.Errorf("booking service initialization error: booking repository is nil")
	case s.Disputes == nil || s.CheckIns == nil:
		return nil, fmt.Errorf("booking service initialization error: records repository is nil")
	case s.Payments == nil:
		return nil, fmt.Errorf("booking service initialization error: payment orchestrator is nil")
	case s.Leases == nil:
		return nil, fmt.Errorf("booking service initialization error: lease locker is nil")
	case s.Notifications == nil:
		return nil, fmt.Errorf("booking service initialization error: notification service is nil")
	case s.Listings == nil || s.Users == nil:
		return nil, fmt.Errorf("booking service initialization error: directory is nil")
	}
	if s.Events == nil {
		s.Events = events.NopPublisher{}
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return &s, nil
}

func (s *DefaultBookingService) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*Availability, error) {
	return CheckAvailability(ctx, s.Bookings, q)
}

// load fetches a booking and confirms the actor is one of its parties acting in that capacity.
func (s *DefaultBookingService) load(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	if bookingID == "" {
		return nil, &ValidationError{Field: "bookingId", Message: "is required"}
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, &NotFoundError{Resource: "booking", ID: bookingID}
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	role, ok := b.RoleOf(actor.UserID)
	if !ok || role != actor.Role {
		return nil, &ForbiddenError{Reason: "not a party to this booking"}
	}
	return b, nil
}

func (s *DefaultBookingService) publish(ctx context.Context, key string, b *models.Booking) {
	if err := s.Events.Publish(ctx, key, b); err != nil {
		s.Logger.Warn("failed to publish booking event", zap.String("booking_id", b.ID),
			zap.String("routing_key", key), zap.Error(err))
	}
}

func (s *DefaultBookingService) notify(ctx context.Context, n *models.Notification) {
	if err := s.Notifications.Emit(ctx, n); err != nil && !errors.Is(err, notification.ErrDuplicateNotification) {
		s.Logger.Error("failed to emit notification", zap.String("booking_id", n.BookingID),
			zap.String("user_id", n.UserID), zap.String("kind", n.Type.String()), zap.Error(err))
	}
}

// gatewayContext limits a leased gateway call so it ends before the lease can lapse.
func (s *DefaultBookingService) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.GatewayTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.GatewayTimeout)
}

func stateOf(b *models.Booking) string {
	return fmt.Sprintf("(%s, %s)", b.Type, b.Status)
}
