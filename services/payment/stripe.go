package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// StripeGateway authorizes with a manual-capture PaymentIntent and captures it on approval.
// It relies on stripe.Key being set at startup.
type StripeGateway struct {
	newIntent     func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	captureIntent func(string, *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	cancelIntent  func(string, *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{
		newIntent:     paymentintent.New,
		captureIntent: paymentintent.Capture,
		cancelIntent:  paymentintent.Cancel,
	}
}

func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Result, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("bookingId", req.BookingID)
	params.AddMetadata("userId", req.UserID)

	pi, err := g.newIntent(params)
	if err != nil {
		return nil, classify("authorize", err)
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusRequiresCapture, stripe.PaymentIntentStatusSucceeded:
		return &Result{GatewayRef: pi.ID, Status: string(pi.Status), Amount: pi.Amount, Currency: string(pi.Currency)}, nil
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return nil, &PaymentDeclinedError{GatewayRef: pi.ID, Message: "payment method was not accepted"}
	default:
		// requires_action and friends cannot be completed off-session
		return nil, &PaymentDeclinedError{GatewayRef: pi.ID, Code: string(pi.Status), Message: "payment needs customer action"}
	}
}

func (g *StripeGateway) Capture(ctx context.Context, req CaptureRequest) (*Result, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	if req.Amount > 0 {
		params.AmountToCapture = stripe.Int64(req.Amount)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := g.captureIntent(req.PaymentIntentID, params)
	if err != nil {
		return nil, classify("capture", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, &GatewayError{Op: "capture", Err: fmt.Errorf("unexpected intent status %q", pi.Status)}
	}
	return &Result{GatewayRef: pi.ID, Status: string(pi.Status), Amount: pi.AmountReceived, Currency: string(pi.Currency)}, nil
}

func (g *StripeGateway) Cancel(ctx context.Context, req CancelRequest) (*Result, error) {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := g.cancelIntent(req.PaymentIntentID, params)
	if err != nil {
		return nil, &GatewayError{Op: "cancel", Err: err}
	}
	if pi.Status != stripe.PaymentIntentStatusCanceled {
		return nil, &GatewayError{Op: "cancel", Err: fmt.Errorf("unexpected intent status %q", pi.Status)}
	}
	return &Result{GatewayRef: pi.ID, Status: string(pi.Status), Amount: pi.Amount, Currency: string(pi.Currency)}, nil
}

// classify separates card declines, which are final, from everything else.
func classify(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		ref := ""
		if stripeErr.PaymentIntent != nil {
			ref = stripeErr.PaymentIntent.ID
		}
		code := string(stripeErr.DeclineCode)
		if code == "" {
			code = string(stripeErr.Code)
		}
		return &PaymentDeclinedError{GatewayRef: ref, Code: code, Message: stripeErr.Msg}
	}
	return &GatewayError{Op: op, Err: err}
}
