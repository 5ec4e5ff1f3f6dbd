package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the booking collection.
func (repo *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Overlap checks: listing + interval bounds.
		{
			Keys:    bson.D{{Key: "listingId", Value: 1}, {Key: "startDate", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index().SetName("listing_interval_idx"),
		},
		// Sweeps select by phase then a date bound.
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "startDate", Value: 1}},
			Options: options.Index().SetName("phase_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index().SetName("phase_end_idx"),
		},
		{
			Keys:    bson.D{{Key: "renterId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("renter_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "hostId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("host_created_idx"),
		},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
