package payment

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentDeclined = errors.New("payment declined")
	ErrNoAuthorization = errors.New("no authorization recorded for booking")
)

// PaymentDeclinedError is a definitive refusal by the gateway. No funds are held.
type PaymentDeclinedError struct {
	GatewayRef string
	Code       string
	Message    string
}

func (e *PaymentDeclinedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Message)
	}
	return "payment declined: " + e.Message
}

func (e *PaymentDeclinedError) Is(target error) bool { return target == ErrPaymentDeclined }

// GatewayError is a transport or provider failure whose outcome is unknown.
// Retrying with the same idempotency key is safe.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err) }

func (e *GatewayError) Unwrap() error { return e.Err }
