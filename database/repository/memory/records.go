package memory

import (
	"context"
	"sync"
	"time"

	recordsRepo "lockbox/database/repository/records"
	"lockbox/models"

	"github.com/google/uuid"
)

type TransactionRepo struct {
	mu   sync.Mutex
	txns []models.Transaction
}

func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{}
}

func (r *TransactionRepo) Create(_ context.Context, txn *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.IdempotencyKey == txn.IdempotencyKey ||
			(t.PaymentIntentID == txn.PaymentIntentID && t.Operation == txn.Operation) {
			return recordsRepo.ErrDuplicate
		}
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	now := time.Now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now
	r.txns = append(r.txns, *txn)
	return nil
}

func (r *TransactionRepo) GetByIdempotencyKey(_ context.Context, key string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txns {
		if t.IdempotencyKey == key {
			return &t, nil
		}
	}
	return nil, recordsRepo.ErrNotFound
}

func (r *TransactionRepo) ListByBooking(_ context.Context, bookingID string) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.txns {
		if t.BookingID == bookingID {
			out = append(out, t)
		}
	}
	return out, nil
}

type DisputeRepo struct {
	mu       sync.Mutex
	disputes []models.Dispute
}

func NewDisputeRepo() *DisputeRepo {
	return &DisputeRepo{}
}

func (r *DisputeRepo) Create(_ context.Context, d *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	r.disputes = append(r.disputes, *d)
	return nil
}

func (r *DisputeRepo) ListByBooking(_ context.Context, bookingID string) ([]models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Dispute
	for _, d := range r.disputes {
		if d.BookingID == bookingID {
			out = append(out, d)
		}
	}
	return out, nil
}

type CheckInRepo struct {
	mu       sync.Mutex
	checkIns []models.CheckIn
}

func NewCheckInRepo() *CheckInRepo {
	return &CheckInRepo{}
}

func (r *CheckInRepo) Create(_ context.Context, c *models.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.checkIns = append(r.checkIns, *c)
	return nil
}

func (r *CheckInRepo) ListByBooking(_ context.Context, bookingID string) ([]models.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CheckIn
	for _, c := range r.checkIns {
		if c.BookingID == bookingID {
			out = append(out, c)
		}
	}
	return out, nil
}
