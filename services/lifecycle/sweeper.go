// Package lifecycle holds the periodic sweeps that move approved bookings
// through their stay and remind renters about checkout and reviews.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "lockbox/database/repository/booking"
	directoryRepo "lockbox/database/repository/directory"
	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/notification"

	"go.uber.org/zap"
)

const DefaultCheckoutLookahead = 4

type Sweeper struct {
	Bookings          bookingRepo.BookingRepository
	Listings          directoryRepo.ListingDirectory
	Reviews           directoryRepo.ReviewDirectory
	Notifications     notification.NotificationService
	Events            events.Publisher
	Location          *time.Location
	CheckoutLookahead int
	Logger            *zap.Logger
	Now               func() time.Time
}

func NewSweeper(s Sweeper) (*Sweeper, error) {
	if s.Bookings == nil || s.Notifications == nil || s.Listings == nil || s.Reviews == nil {
		return nil, fmt.Errorf("lifecycle sweeper initialization error: missing repository or notification service")
	}
	if s.Events == nil {
		s.Events = events.NopPublisher{}
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.CheckoutLookahead <= 0 {
		s.CheckoutLookahead = DefaultCheckoutLookahead
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return &s, nil
}

type PhaseReport struct {
	Promoted []string `json:"promoted"`
	Retired  []string `json:"retired"`
}

// AdvancePhases moves started bookings to current, then ended ones to past.
// A booking promoted during today's sweep day is not retired until a later
// day, so every approved stay is current for at least one sweep. Both steps
// always run; the report lists what moved even when the error is non-nil.
func (s *Sweeper) AdvancePhases(ctx context.Context) (*PhaseReport, error) {
	now := s.Now()
	var errs []error
	promoted, err := s.Bookings.PromoteStarted(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to promote started bookings: %w", err))
	}
	retired, err := s.Bookings.RetireEnded(ctx, now, s.startOfDay(now))
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to retire ended bookings: %w", err))
	}

	for _, id := range promoted {
		s.publishPhase(ctx, id, models.TypeCurrent)
	}
	for _, id := range retired {
		s.publishPhase(ctx, id, models.TypePast)
	}
	err = errors.Join(errs...)
	s.Logger.Info("phase sweep finished", zap.Int("promoted", len(promoted)), zap.Int("retired", len(retired)), zap.Error(err))
	return &PhaseReport{Promoted: promoted, Retired: retired}, err
}

type ReminderReport struct {
	ReviewSent      int `json:"reviewSent"`
	ReviewSkipped   int `json:"reviewSkipped"`
	CheckoutSent    int `json:"checkoutSent"`
	CheckoutSkipped int `json:"checkoutSkipped"`
}

// SendReminders asks renters of finished stays for a review once, and counts
// down checkout once per day. Failures on one booking do not stop the batch.
func (s *Sweeper) SendReminders(ctx context.Context) (*ReminderReport, error) {
	report := &ReminderReport{}
	listings := make(map[string]*models.ListingSummary)
	errs := []error{s.reviewReminders(ctx, report, listings), s.checkoutReminders(ctx, report, listings)}
	err := errors.Join(errs...)

	s.Logger.Info("reminder sweep finished",
		zap.Int("review_sent", report.ReviewSent), zap.Int("review_skipped", report.ReviewSkipped),
		zap.Int("checkout_sent", report.CheckoutSent), zap.Int("checkout_skipped", report.CheckoutSkipped),
		zap.Error(err))
	return report, err
}

func (s *Sweeper) reviewReminders(ctx context.Context, report *ReminderReport, listings map[string]*models.ListingSummary) error {
	bookings, err := s.Bookings.ListByPhase(ctx, models.TypePast, models.StatusApprove)
	if err != nil {
		return fmt.Errorf("failed to list past bookings: %w", err)
	}

	var errs []error
	for i := range bookings {
		b := &bookings[i]
		reviewed, err := s.Reviews.HasReview(ctx, b.RenterID, b.ListingID)
		if err != nil {
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		if reviewed {
			report.ReviewSkipped++
			continue
		}
		title, err := s.title(ctx, b.ListingID, listings)
		if err != nil {
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		sent, err := s.emit(ctx, b, models.KindLeaveReview, title, "Leave a review for your recent rental.",
			notification.DedupKey(b.ID, models.KindLeaveReview, b.RenterID))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sent {
			report.ReviewSent++
		} else {
			report.ReviewSkipped++
		}
	}
	return errors.Join(errs...)
}

func (s *Sweeper) checkoutReminders(ctx context.Context, report *ReminderReport, listings map[string]*models.ListingSummary) error {
	today := s.startOfDay(s.Now())
	until := today.AddDate(0, 0, s.CheckoutLookahead+1).Add(-time.Nanosecond)
	bookings, err := s.Bookings.ListEndingBetween(ctx, models.TypeCurrent, models.StatusApprove, today, until)
	if err != nil {
		return fmt.Errorf("failed to list bookings near checkout: %w", err)
	}

	var errs []error
	for i := range bookings {
		b := &bookings[i]
		end := b.EndDate.In(s.Location)
		days := daysBetween(today, s.startOfDay(end))
		if days < 0 || days > s.CheckoutLookahead {
			continue
		}
		title, err := s.title(ctx, b.ListingID, listings)
		if err != nil {
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		body := fmt.Sprintf("%s Date: %s", CheckoutMessage(days), end.Format("Jan 02, 2006"))
		sent, err := s.emit(ctx, b, models.KindCheckoutReminder, title, body,
			notification.DedupKey(b.ID, models.KindCheckoutReminder, b.RenterID, today.Format("2006-01-02")))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if sent {
			report.CheckoutSent++
		} else {
			report.CheckoutSkipped++
		}
	}
	return errors.Join(errs...)
}

// CheckoutMessage words the countdown for a checkout days away.
func CheckoutMessage(days int) string {
	switch days {
	case 0:
		return "Your checkout is today!"
	case 1:
		return "Your checkout is tomorrow!"
	default:
		return fmt.Sprintf("Your checkout is in %d days!", days)
	}
}

func (s *Sweeper) emit(ctx context.Context, b *models.Booking, kind models.NotificationKind, title, body, key string) (bool, error) {
	err := s.Notifications.Emit(ctx, &models.Notification{
		BookingID: b.ID,
		ListingID: b.ListingID,
		UserID:    b.RenterID,
		UserRole:  models.RoleRent,
		RenterID:  b.RenterID,
		HostID:    b.HostID,
		Type:      kind,
		Title:     title,
		Body:      body,
		DedupKey:  key,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, notification.ErrDuplicateNotification):
		return false, nil
	default:
		return false, fmt.Errorf("booking %s: %w", b.ID, err)
	}
}

func (s *Sweeper) title(ctx context.Context, listingID string, cache map[string]*models.ListingSummary) (string, error) {
	l, ok := cache[listingID]
	if !ok {
		var err error
		l, err = s.Listings.GetListing(ctx, listingID)
		if err != nil && !errors.Is(err, directoryRepo.ErrNotFound) {
			return "", fmt.Errorf("failed to load listing %s: %w", listingID, err)
		}
		cache[listingID] = l
	}
	if l == nil {
		return "Storage rental.", nil
	}
	return fmt.Sprintf("%s for storage in %s.", l.SpaceType, l.City), nil
}

func (s *Sweeper) publishPhase(ctx context.Context, id string, typ models.BookingType) {
	payload := map[string]string{"bookingId": id, "type": string(typ)}
	if err := s.Events.Publish(ctx, events.KeyBookingAdvanced, payload); err != nil {
		s.Logger.Warn("failed to publish phase event", zap.String("booking_id", id), zap.Error(err))
	}
}

func (s *Sweeper) startOfDay(t time.Time) time.Time {
	t = t.In(s.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.Location)
}

// daysBetween counts calendar days; both arguments are local midnights.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
