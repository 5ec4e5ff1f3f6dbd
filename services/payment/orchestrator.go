package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	recordsRepo "lockbox/database/repository/records"
	"lockbox/models"

	"go.uber.org/zap"
)

func RequestKey(bookingID string) string  { return bookingID + ":request" }
func ApprovalKey(bookingID string) string { return bookingID + ":approval" }
func VoidKey(bookingID string) string     { return bookingID + ":void" }

// Orchestrator performs gateway operations for bookings and records one
// Transaction per successful operation. Failed operations leave no record.
type Orchestrator struct {
	Gateway      Gateway
	Transactions recordsRepo.TransactionRepository
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewOrchestrator(gw Gateway, txns recordsRepo.TransactionRepository, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Gateway: gw, Transactions: txns, Logger: logger, Now: time.Now}
}

// Authorize places a hold for the booking's total amount.
func (o *Orchestrator) Authorize(ctx context.Context, b *models.Booking, customerID string) (*models.Transaction, error) {
	key := RequestKey(b.ID)
	if txn, err := o.existing(ctx, key); txn != nil || err != nil {
		return txn, err
	}

	res, err := o.Gateway.Authorize(ctx, AuthorizeRequest{
		BookingID:       b.ID,
		UserID:          b.RenterID,
		CustomerID:      customerID,
		PaymentMethodID: b.PaymentMethodID,
		Amount:          b.TotalAmount,
		Currency:        b.Currency,
		IdempotencyKey:  key,
	})
	if err != nil {
		o.Logger.Warn("payment authorization failed", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}

	return o.record(ctx, &models.Transaction{
		PaymentIntentID: res.GatewayRef,
		Operation:       models.OperationAuthorize,
		IdempotencyKey:  key,
		BookingID:       b.ID,
		UserID:          b.RenterID,
		Amount:          b.TotalAmount,
		Currency:        b.Currency,
		Status:          models.TransactionSucceeded,
		PaymentMethodID: b.PaymentMethodID,
	})
}

// Capture settles the hold placed by Authorize.
func (o *Orchestrator) Capture(ctx context.Context, b *models.Booking) (*models.Transaction, error) {
	key := ApprovalKey(b.ID)
	if txn, err := o.existing(ctx, key); txn != nil || err != nil {
		return txn, err
	}

	auth, err := o.Transactions.GetByIdempotencyKey(ctx, RequestKey(b.ID))
	if err != nil {
		if errors.Is(err, recordsRepo.ErrNotFound) {
			return nil, fmt.Errorf("booking %s: %w", b.ID, ErrNoAuthorization)
		}
		return nil, fmt.Errorf("failed to load authorization: %w", err)
	}

	res, err := o.Gateway.Capture(ctx, CaptureRequest{
		BookingID:       b.ID,
		PaymentIntentID: auth.PaymentIntentID,
		Amount:          b.TotalAmount,
		IdempotencyKey:  key,
	})
	if err != nil {
		o.Logger.Warn("payment capture failed", zap.String("booking_id", b.ID),
			zap.String("gateway_ref", auth.PaymentIntentID), zap.Error(err))
		return nil, err
	}

	return o.record(ctx, &models.Transaction{
		PaymentIntentID: res.GatewayRef,
		Operation:       models.OperationCapture,
		IdempotencyKey:  key,
		BookingID:       b.ID,
		UserID:          b.RenterID,
		Amount:          b.TotalAmount,
		Currency:        b.Currency,
		Status:          models.TransactionSucceeded,
		PaymentMethodID: b.PaymentMethodID,
	})
}

// Void releases the hold recorded by auth when the booking it was placed for
// will never be decided.
func (o *Orchestrator) Void(ctx context.Context, b *models.Booking, auth *models.Transaction) (*models.Transaction, error) {
	key := VoidKey(b.ID)
	if txn, err := o.existing(ctx, key); txn != nil || err != nil {
		return txn, err
	}

	res, err := o.Gateway.Cancel(ctx, CancelRequest{
		BookingID:       b.ID,
		PaymentIntentID: auth.PaymentIntentID,
		IdempotencyKey:  key,
	})
	if err != nil {
		o.Logger.Error("payment hold not released", zap.String("booking_id", b.ID),
			zap.String("gateway_ref", auth.PaymentIntentID), zap.Error(err))
		return nil, err
	}

	return o.record(ctx, &models.Transaction{
		PaymentIntentID: res.GatewayRef,
		Operation:       models.OperationCancel,
		IdempotencyKey:  key,
		BookingID:       b.ID,
		UserID:          b.RenterID,
		Amount:          auth.Amount,
		Currency:        b.Currency,
		Status:          models.TransactionSucceeded,
		PaymentMethodID: b.PaymentMethodID,
	})
}

func (o *Orchestrator) existing(ctx context.Context, key string) (*models.Transaction, error) {
	txn, err := o.Transactions.GetByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		return txn, nil
	case errors.Is(err, recordsRepo.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("failed to look up transaction %s: %w", key, err)
	}
}

func (o *Orchestrator) record(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	now := time.Now()
	if o.Now != nil {
		now = o.Now()
	}
	txn.CreatedAt, txn.UpdatedAt = now, now
	if err := o.Transactions.Create(ctx, txn); err != nil {
		if errors.Is(err, recordsRepo.ErrDuplicate) {
			// a concurrent retry recorded the same operation first
			return o.Transactions.GetByIdempotencyKey(ctx, txn.IdempotencyKey)
		}
		o.Logger.Error("gateway operation succeeded but transaction was not recorded",
			zap.String("booking_id", txn.BookingID), zap.String("gateway_ref", txn.PaymentIntentID), zap.Error(err))
		return nil, fmt.Errorf("failed to record %s transaction: %w", txn.Operation, err)
	}
	o.Logger.Info("payment recorded", zap.String("booking_id", txn.BookingID),
		zap.String("operation", string(txn.Operation)), zap.String("gateway_ref", txn.PaymentIntentID),
		zap.Int64("amount", txn.Amount))
	return txn, nil
}
