package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockbox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a repository over the "booking" collection.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{coll: db.Collection("booking")}
}

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its id.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

// Transition is a single-document conditional update; the guard travels in the filter.
func (repo *MongoBookingRepo) Transition(ctx context.Context, id string, guard models.PhaseGuard, update models.PhaseUpdate) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	if guard.Type != "" {
		filter["type"] = guard.Type
	}
	if guard.Status != "" {
		filter["status"] = guard.Status
	}

	set := bson.M{"updatedAt": update.At}
	if update.Type != "" {
		set["type"] = update.Type
		if update.Type != guard.Type {
			set["phaseChangedAt"] = update.At
		}
	}
	if update.Status != "" {
		set["status"] = update.Status
	}
	doc := bson.M{"$set": set}
	if update.SettlePeriod {
		doc["$inc"] = bson.M{"totalPaidMonthRent": 1, "totalPaidMonthHost": 1}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	if err := repo.coll.FindOneAndUpdate(ctx, filter, doc, opts).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoMatch
		}
		return nil, fmt.Errorf("error transitioning booking %s: %w", id, err)
	}
	return &booking, nil
}

// ForceDispute overwrites type and status unconditionally. The pipeline update
// reads the old type and status, so disputedFrom is set only on the first dispute.
func (repo *MongoBookingRepo) ForceDispute(ctx context.Context, id string, at time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"disputedFrom": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$type", models.TypeDispute}}, "$disputedFrom", "$status",
		}},
		"type":           models.TypeDispute,
		"status":         models.StatusUnderReview,
		"phaseChangedAt": at,
		"updatedAt":      at,
	}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error disputing booking %s: %w", id, err)
	}
	return &booking, nil
}

// Settle increments both paid-period counters with no guard on type or status.
func (repo *MongoBookingRepo) Settle(ctx context.Context, id string, at time.Time) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"updatedAt": at},
		"$inc": bson.M{"totalPaidMonthRent": 1, "totalPaidMonthHost": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking models.Booking
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error settling booking %s: %w", id, err)
	}
	return &booking, nil
}
