package recordsRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockbox/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a transaction; a repeated idempotency key returns ErrDuplicate.
func (r *mongoTransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	stamp(&txn.CreatedAt, &txn.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, txn); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating transaction: %w", err)
	}
	return nil
}

func (r *mongoTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var txn models.Transaction
	if err := r.coll.FindOne(ctx, bson.M{"idempotencyKey": key}).Decode(&txn); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching transaction %s: %w", key, err)
	}
	return &txn, nil
}

func (r *mongoTransactionRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := listByBooking(ctx, r.coll, bookingID, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// EnsureIndexes enforces one row per idempotency key and per gateway operation.
func (r *mongoTransactionRepo) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_idempotency_key"),
		},
		{
			Keys:    bson.D{{Key: "paymentIntentId", Value: 1}, {Key: "operation", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_intent_operation"),
		},
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetName("booking_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_idx"),
		},
	})
}

func (r *mongoDisputeRepo) Create(ctx context.Context, dispute *models.Dispute) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if dispute.ID == "" {
		dispute.ID = uuid.New().String()
	}
	stamp(&dispute.CreatedAt, &dispute.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, dispute); err != nil {
		return fmt.Errorf("error creating dispute: %w", err)
	}
	return nil
}

func (r *mongoDisputeRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Dispute, error) {
	var disputes []models.Dispute
	if err := listByBooking(ctx, r.coll, bookingID, &disputes); err != nil {
		return nil, err
	}
	return disputes, nil
}

func (r *mongoDisputeRepo) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.coll, ownerIndexes())
}

func (r *mongoCheckInRepo) Create(ctx context.Context, checkIn *models.CheckIn) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if checkIn.ID == "" {
		checkIn.ID = uuid.New().String()
	}
	stamp(&checkIn.CreatedAt, &checkIn.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, checkIn); err != nil {
		return fmt.Errorf("error creating check-in: %w", err)
	}
	return nil
}

func (r *mongoCheckInRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	if err := listByBooking(ctx, r.coll, bookingID, &checkIns); err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (r *mongoCheckInRepo) EnsureIndexes(ctx context.Context) error {
	return createIndexes(ctx, r.coll, ownerIndexes())
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func listByBooking(ctx context.Context, coll *mongo.Collection, bookingID string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := coll.Find(ctx, bson.M{"bookingId": bookingID}, opts)
	if err != nil {
		return fmt.Errorf("error listing %s for booking %s: %w", coll.Name(), bookingID, err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("error decoding %s: %w", coll.Name(), err)
	}
	return nil
}

func ownerIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("booking_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_idx"),
		},
	}
}

func createIndexes(ctx context.Context, coll *mongo.Collection, indexes []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
	}
	return nil
}
