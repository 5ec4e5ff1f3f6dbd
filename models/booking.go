package models

import "time"

// BookingType is the temporal phase of a stay.
type BookingType string

const (
	TypeFuture  BookingType = "future"
	TypeCurrent BookingType = "current"
	TypePast    BookingType = "past"
	TypeDispute BookingType = "dispute"
)

// BookingStatus is the host decision state of a booking.
type BookingStatus string

const (
	StatusUnderReview BookingStatus = "under_review"
	StatusApprove     BookingStatus = "approve"
	StatusReject      BookingStatus = "reject"
	StatusDispute     BookingStatus = "dispute"
)

// DateHold selects which bookings keep a listing's dates from other renters.
// The empty DateHold counts every booking.
type DateHold string

const (
	// HoldRequested is committed stays plus requests still awaiting the host.
	HoldRequested DateHold = "requested"
	// HoldCommitted is approved stays, including disputes raised against them.
	HoldCommitted DateHold = "committed"
)

func ParseBookingType(s string) (BookingType, bool) {
	switch BookingType(s) {
	case TypeFuture, TypeCurrent, TypePast, TypeDispute:
		return BookingType(s), true
	}
	return "", false
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case StatusUnderReview, StatusApprove, StatusReject, StatusDispute:
		return BookingStatus(s), true
	}
	return "", false
}

// Booking is a time-bounded rental of a listing. Money fields are minor currency units.
type Booking struct {
	ID                 string        `bson:"id" json:"id"`
	RenterID           string        `bson:"renterId" json:"renterId"`
	HostID             string        `bson:"hostId" json:"hostId"`
	ListingID          string        `bson:"listingId" json:"listingId"`
	Amount             int64         `bson:"amount" json:"amount"`
	Tax                int64         `bson:"tax" json:"tax"`
	ServiceFee         int64         `bson:"serviceFee" json:"serviceFee"`
	TotalAmount        int64         `bson:"totalAmount" json:"totalAmount"`
	Currency           string        `bson:"currency" json:"currency"`
	InsuranceID        string        `bson:"insuranceId,omitempty" json:"insuranceId,omitempty"`
	PaymentMethodID    string        `bson:"paymentMethodId" json:"paymentMethodId"`
	StartDate          time.Time     `bson:"startDate" json:"startDate"`
	EndDate            time.Time     `bson:"endDate" json:"endDate"`
	TotalMonth         int           `bson:"totalMonth" json:"totalMonth"`
	TotalPaidMonthHost int           `bson:"totalPaidMonthHost" json:"totalPaidMonthHost"`
	TotalPaidMonthRent int           `bson:"totalPaidMonthRent" json:"totalPaidMonthRent"`
	Type               BookingType   `bson:"type" json:"type"`
	Status             BookingStatus `bson:"status" json:"status"`
	// DisputedFrom is the status the booking had when it first entered dispute.
	DisputedFrom       BookingStatus `bson:"disputedFrom,omitempty" json:"disputedFrom,omitempty"`
	PhaseChangedAt     time.Time     `bson:"phaseChangedAt" json:"phaseChangedAt"`
	CreatedAt          time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Overlaps reports whether the booking's [StartDate, EndDate) intersects [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}

// Committed reports whether the booking is an approved stay. A dispute only
// counts when it was raised against one; disputes stored without DisputedFrom
// are treated as committed.
func (b Booking) Committed() bool {
	switch {
	case b.Status == StatusApprove, b.Status == StatusDispute:
		return true
	case b.Type == TypeDispute:
		return b.DisputedFrom == "" || b.DisputedFrom == StatusApprove
	}
	return false
}

// Holds reports whether the booking keeps its dates under h.
func (b Booking) Holds(h DateHold) bool {
	switch h {
	case HoldCommitted:
		return b.Committed()
	case HoldRequested:
		return b.Committed() || (b.Type == TypeFuture && b.Status == StatusUnderReview)
	}
	return true
}

// RoleOf returns the role userID plays on the booking.
func (b Booking) RoleOf(userID string) (Role, bool) {
	switch userID {
	case b.RenterID:
		return RoleRent, true
	case b.HostID:
		return RoleHost, true
	}
	return "", false
}

// Counterparty returns the other party's user ID.
func (b Booking) Counterparty(role Role) (string, Role) {
	if role == RoleHost {
		return b.RenterID, RoleRent
	}
	return b.HostID, RoleHost
}

// BookingFilter selects a page of a user's bookings.
type BookingFilter struct {
	UserID string
	Role   Role
	Type   BookingType
	Page   int
	Limit  int
}

// Skip returns the number of documents before the requested page.
func (f BookingFilter) Skip() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// PhaseGuard is the state a booking must be in for a conditional transition to apply.
type PhaseGuard struct {
	Type   BookingType
	Status BookingStatus
}

// PhaseUpdate is applied atomically with its guard.
type PhaseUpdate struct {
	Type         BookingType
	Status       BookingStatus
	SettlePeriod bool
	At           time.Time
}
