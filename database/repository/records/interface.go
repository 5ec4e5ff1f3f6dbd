package recordsRepo

import (
	"context"
	"errors"

	"lockbox/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// TransactionRepository is owned by the payment orchestrator.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Transaction, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute *models.Dispute) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.Dispute, error)
}

type CheckInRepository interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.CheckIn, error)
}

type mongoTransactionRepo struct {
	coll *mongo.Collection
}

type mongoDisputeRepo struct {
	coll *mongo.Collection
}

type mongoCheckInRepo struct {
	coll *mongo.Collection
}

// NewMongoTransactionRepo returns a TransactionRepository over the "transaction" collection.
func NewMongoTransactionRepo(db *mongo.Database) *mongoTransactionRepo {
	return &mongoTransactionRepo{coll: db.Collection("transaction")}
}

// NewMongoDisputeRepo returns a DisputeRepository over the "dispute" collection.
func NewMongoDisputeRepo(db *mongo.Database) *mongoDisputeRepo {
	return &mongoDisputeRepo{coll: db.Collection("dispute")}
}

// NewMongoCheckInRepo returns a CheckInRepository over the "checkIn" collection.
func NewMongoCheckInRepo(db *mongo.Database) *mongoCheckInRepo {
	return &mongoCheckInRepo{coll: db.Collection("checkIn")}
}
