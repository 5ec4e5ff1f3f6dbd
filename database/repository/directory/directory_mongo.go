package directoryRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockbox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDirectory struct {
	users    *mongo.Collection
	listings *mongo.Collection
	reviews  *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{
		users:    db.Collection("users"),
		listings: db.Collection("listing"),
		reviews:  db.Collection("review"),
	}
}

// refValue matches documents written with either ObjectID or string references.
func refValue(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func byID(id string) bson.M {
	return bson.M{"$or": bson.A{bson.M{"_id": refValue(id)}, bson.M{"id": id}}}
}

func (d *MongoDirectory) StripeCustomerID(ctx context.Context, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc struct {
		StripeCustomerID string `bson:"stripeCustomerId"`
	}
	opts := options.FindOne().SetProjection(bson.M{"stripeCustomerId": 1})
	if err := d.users.FindOne(ctx, byID(userID), opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error fetching user %s: %w", userID, err)
	}
	return doc.StripeCustomerID, nil
}

type listingDoc struct {
	UserID    interface{} `bson:"userId"`
	HostID    string      `bson:"hostId"`
	SpaceType string      `bson:"spaceType"`
	City      string      `bson:"city"`
}

func (d *MongoDirectory) GetListing(ctx context.Context, listingID string) (*models.ListingSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc listingDoc
	if err := d.listings.FindOne(ctx, byID(listingID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching listing %s: %w", listingID, err)
	}

	host := doc.HostID
	switch v := doc.UserID.(type) {
	case primitive.ObjectID:
		host = v.Hex()
	case string:
		if v != "" {
			host = v
		}
	}
	return &models.ListingSummary{
		ID:        listingID,
		HostID:    host,
		SpaceType: doc.SpaceType,
		City:      doc.City,
	}, nil
}

func (d *MongoDirectory) HasReview(ctx context.Context, userID, listingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := d.reviews.CountDocuments(ctx, bson.M{
		"userId":    refValue(userID),
		"listingId": refValue(listingID),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking review for listing %s: %w", listingID, err)
	}
	return n > 0, nil
}
