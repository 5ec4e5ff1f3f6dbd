package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryGateway is an in-process gateway for development and tests. Payment
// methods listed in Declined are refused; AuthorizeErr, CaptureErr and
// CancelErr inject failures.
type MemoryGateway struct {
	mu           sync.Mutex
	Declined     map[string]bool
	AuthorizeErr error
	CaptureErr   error
	CancelErr    error

	intents       map[string]*memoryIntent
	byKey         map[string]*Result
	authorizeHits int
	captureHits   int
}

type memoryIntent struct {
	amount   int64
	currency string
	captured bool
	canceled bool
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		Declined: make(map[string]bool),
		intents:  make(map[string]*memoryIntent),
		byKey:    make(map[string]*Result),
	}
}

func (g *MemoryGateway) Authorize(_ context.Context, req AuthorizeRequest) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authorizeHits++

	if res, ok := g.byKey[req.IdempotencyKey]; ok {
		return res, nil
	}
	if g.AuthorizeErr != nil {
		return nil, g.AuthorizeErr
	}
	if g.Declined[req.PaymentMethodID] {
		return nil, &PaymentDeclinedError{Code: "card_declined", Message: "Your card was declined."}
	}

	id := "pi_" + uuid.New().String()
	g.intents[id] = &memoryIntent{amount: req.Amount, currency: req.Currency}
	res := &Result{GatewayRef: id, Status: "requires_capture", Amount: req.Amount, Currency: req.Currency}
	g.byKey[req.IdempotencyKey] = res
	return res, nil
}

func (g *MemoryGateway) Capture(_ context.Context, req CaptureRequest) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureHits++

	if res, ok := g.byKey[req.IdempotencyKey]; ok {
		return res, nil
	}
	if g.CaptureErr != nil {
		return nil, g.CaptureErr
	}
	intent, ok := g.intents[req.PaymentIntentID]
	if !ok {
		return nil, &GatewayError{Op: "capture", Err: fmt.Errorf("no such payment intent %s", req.PaymentIntentID)}
	}
	if intent.captured {
		return nil, &GatewayError{Op: "capture", Err: fmt.Errorf("payment intent %s already captured", req.PaymentIntentID)}
	}
	if intent.canceled {
		return nil, &GatewayError{Op: "capture", Err: fmt.Errorf("payment intent %s was canceled", req.PaymentIntentID)}
	}
	intent.captured = true
	res := &Result{GatewayRef: req.PaymentIntentID, Status: "succeeded", Amount: intent.amount, Currency: intent.currency}
	g.byKey[req.IdempotencyKey] = res
	return res, nil
}

func (g *MemoryGateway) Cancel(_ context.Context, req CancelRequest) (*Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if res, ok := g.byKey[req.IdempotencyKey]; ok {
		return res, nil
	}
	if g.CancelErr != nil {
		return nil, g.CancelErr
	}
	intent, ok := g.intents[req.PaymentIntentID]
	if !ok {
		return nil, &GatewayError{Op: "cancel", Err: fmt.Errorf("no such payment intent %s", req.PaymentIntentID)}
	}
	if intent.captured {
		return nil, &GatewayError{Op: "cancel", Err: fmt.Errorf("payment intent %s already captured", req.PaymentIntentID)}
	}
	intent.canceled = true
	res := &Result{GatewayRef: req.PaymentIntentID, Status: "canceled", Amount: intent.amount, Currency: intent.currency}
	g.byKey[req.IdempotencyKey] = res
	return res, nil
}

// Calls reports how many authorize and capture requests reached the gateway.
func (g *MemoryGateway) Calls() (authorize, capture int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authorizeHits, g.captureHits
}

// Captured reports whether the intent has been captured.
func (g *MemoryGateway) Captured(intentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	return ok && intent.captured
}

// Canceled reports whether the intent's hold has been released.
func (g *MemoryGateway) Canceled(intentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	return ok && intent.canceled
}
