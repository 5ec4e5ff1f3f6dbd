package models

import "time"

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSucceeded TransactionStatus = "succeeded"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// PaymentOperation names the gateway call a transaction records.
type PaymentOperation string

const (
	OperationAuthorize PaymentOperation = "authorize"
	OperationCapture   PaymentOperation = "capture"
	OperationCancel    PaymentOperation = "cancel"
)

// Transaction is the audit record of one gateway operation.
type Transaction struct {
	ID              string            `bson:"id" json:"id"`
	PaymentIntentID string            `bson:"paymentIntentId" json:"paymentIntentId"`
	Operation       PaymentOperation  `bson:"operation" json:"operation"`
	IdempotencyKey  string            `bson:"idempotencyKey" json:"idempotencyKey"`
	BookingID       string            `bson:"bookingId" json:"bookingId"`
	UserID          string            `bson:"userId" json:"userId"`
	Amount          int64             `bson:"amount" json:"amount"`
	Currency        string            `bson:"currency" json:"currency"`
	Status          TransactionStatus `bson:"status" json:"status"`
	PaymentMethodID string            `bson:"paymentMethodId" json:"paymentMethodId"`
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Dispute is append-only evidence filed by one party of a booking.
type Dispute struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"bookingId" json:"bookingId"`
	UserID    string    `bson:"userId" json:"userId"`
	Type      Role      `bson:"type" json:"type"`
	Desc      string    `bson:"desc" json:"desc"`
	Images    []string  `bson:"images" json:"images"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CheckIn is a party's move-in record; it never changes the booking.
type CheckIn struct {
	ID          string    `bson:"id" json:"id"`
	BookingID   string    `bson:"bookingId" json:"bookingId"`
	UserID      string    `bson:"userId" json:"userId"`
	Type        Role      `bson:"type" json:"type"`
	Agree       bool      `bson:"agree" json:"agree"`
	CheckInDate time.Time `bson:"checkInDate" json:"checkInDate"`
	Note        string    `bson:"note" json:"note"`
	Images      []string  `bson:"images" json:"images"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
