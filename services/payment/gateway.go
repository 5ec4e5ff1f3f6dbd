package payment

import "context"

type AuthorizeRequest struct {
	BookingID       string
	UserID          string
	CustomerID      string
	PaymentMethodID string
	Amount          int64
	Currency        string
	IdempotencyKey  string
}

type CaptureRequest struct {
	BookingID       string
	PaymentIntentID string
	Amount          int64
	IdempotencyKey  string
}

type CancelRequest struct {
	BookingID       string
	PaymentIntentID string
	IdempotencyKey  string
}

// Result describes a successful gateway operation.
type Result struct {
	GatewayRef string
	Status     string
	Amount     int64
	Currency   string
}

// Gateway places a hold on the renter's payment method at request time and
// captures it when the host approves. Cancel releases a hold that will never
// be captured. Implementations must honor IdempotencyKey so retries never
// move money twice.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Result, error)
	Capture(ctx context.Context, req CaptureRequest) (*Result, error)
	Cancel(ctx context.Context, req CancelRequest) (*Result, error)
}
