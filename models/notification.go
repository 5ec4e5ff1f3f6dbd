package models

import "time"

// NotificationKind is stored as a number for compatibility with existing clients.
type NotificationKind int

const (
	KindLeaveReview      NotificationKind = 1
	KindNewRequest       NotificationKind = 2
	KindCheckoutReminder NotificationKind = 3
	KindDecision         NotificationKind = 4
	KindDispute          NotificationKind = 5
)

func (k NotificationKind) String() string {
	switch k {
	case KindLeaveReview:
		return "leave-review"
	case KindNewRequest:
		return "new-request"
	case KindCheckoutReminder:
		return "checkout"
	case KindDecision:
		return "decision"
	case KindDispute:
		return "dispute"
	}
	return "unknown"
}

type Notification struct {
	ID        string           `bson:"id" json:"id"`
	BookingID string           `bson:"bookingId" json:"bookingId"`
	ListingID string           `bson:"listingId,omitempty" json:"listingId,omitempty"`
	UserID    string           `bson:"userId" json:"userId"`
	UserRole  Role             `bson:"userRole" json:"userRole"`
	RenterID  string           `bson:"renterId,omitempty" json:"renterId,omitempty"`
	HostID    string           `bson:"hostId,omitempty" json:"hostId,omitempty"`
	Type      NotificationKind `bson:"type" json:"type"`
	Title     string           `bson:"title" json:"title"`
	Body      string           `bson:"body" json:"body"`
	DedupKey  string           `bson:"dedupKey" json:"-"`
	Read      bool             `bson:"read" json:"read"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt"`
}
