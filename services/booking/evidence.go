package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lockbox/models"
	"lockbox/services/events"
	"lockbox/services/notification"

	"go.uber.org/zap"
)

type DisputeInput struct {
	BookingID string   `json:"bookingId"`
	Desc      string   `json:"desc"`
	Images    []string `json:"images,omitempty"`
}

type CheckInInput struct {
	BookingID   string     `json:"bookingId"`
	Agree       bool       `json:"agree"`
	CheckInDate *time.Time `json:"checkInDate,omitempty"`
	Note        string     `json:"note"`
	Images      []string   `json:"images,omitempty"`
}

// UnmarshalJSON reads checkInDate with ParseDate.
func (in *CheckInInput) UnmarshalJSON(data []byte) error {
	type plain CheckInInput
	aux := struct {
		*plain
		CheckInDate string `json:"checkInDate,omitempty"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	date, err := parseOptionalDate("checkInDate", aux.CheckInDate)
	if err != nil {
		return err
	}
	if !date.IsZero() {
		in.CheckInDate = &date
	}
	return nil
}

// FileDispute puts the booking back under review, whatever phase it was in,
// and records the evidence. It holds the listing lease so an approval in
// flight finishes first.
func (s *DefaultBookingService) FileDispute(ctx context.Context, actor models.Actor, in DisputeInput) (*models.Dispute, error) {
	if strings.TrimSpace(in.Desc) == "" {
		return nil, &ValidationError{Field: "desc", Message: "is required"}
	}
	b, err := s.load(ctx, actor, in.BookingID)
	if err != nil {
		return nil, err
	}

	release, err := s.lockListing(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	defer s.release(release, b.ListingID)

	now := s.Now()
	updated, err := s.Bookings.ForceDispute(ctx, b.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to move booking into dispute: %w", err)
	}

	d := &models.Dispute{
		BookingID: b.ID,
		UserID:    actor.UserID,
		Type:      actor.Role,
		Desc:      in.Desc,
		Images:    nonNil(in.Images),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Disputes.Create(ctx, d); err != nil {
		// the booking stays in dispute; a retry appends the evidence
		s.Logger.Error("booking disputed but evidence not recorded", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to record dispute: %w", err)
	}
	s.Logger.Info("dispute filed", zap.String("booking_id", b.ID), zap.String("dispute_id", d.ID),
		zap.String("from", string(updated.DisputedFrom)), zap.String("role", string(actor.Role)))

	to, toRole := b.Counterparty(actor.Role)
	s.notify(ctx, &models.Notification{
		BookingID: b.ID,
		ListingID: b.ListingID,
		UserID:    to,
		UserRole:  toRole,
		RenterID:  b.RenterID,
		HostID:    b.HostID,
		Type:      models.KindDispute,
		Title:     "Booking disputed",
		Body:      "A dispute was opened on your booking and it is back under review.",
		DedupKey:  notification.DedupKey(b.ID, models.KindDispute, to, d.ID),
	})
	s.publish(ctx, events.KeyBookingDisputed, updated)
	return d, nil
}

// FileCheckIn appends a party's move-in record. The booking is not changed.
func (s *DefaultBookingService) FileCheckIn(ctx context.Context, actor models.Actor, in CheckInInput) (*models.CheckIn, error) {
	if strings.TrimSpace(in.Note) == "" {
		return nil, &ValidationError{Field: "note", Message: "is required"}
	}
	b, err := s.load(ctx, actor, in.BookingID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	date := now
	if in.CheckInDate != nil && !in.CheckInDate.IsZero() {
		date = *in.CheckInDate
	}
	c := &models.CheckIn{
		BookingID:   b.ID,
		UserID:      actor.UserID,
		Type:        actor.Role,
		Agree:       in.Agree,
		CheckInDate: date,
		Note:        in.Note,
		Images:      nonNil(in.Images),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CheckIns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	s.Logger.Info("check-in filed", zap.String("booking_id", b.ID), zap.String("role", string(actor.Role)))
	return c, nil
}

func nonNil(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
