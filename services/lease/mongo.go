package lease

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type lockDoc struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoLocker keeps one lock document per listing. The upsert only matches an
// expired lock, so a live one makes the insert collide on _id.
type MongoLocker struct {
	coll *mongo.Collection
	opts Options
}

func NewMongoLocker(db *mongo.Database, opts Options) *MongoLocker {
	return &MongoLocker{coll: db.Collection("listingLock"), opts: opts.withDefaults()}
}

func (l *MongoLocker) Acquire(ctx context.Context, listingID string) (Release, error) {
	token := newToken()
	err := acquireLoop(ctx, l.opts, func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		now := time.Now()
		_, err := l.coll.UpdateOne(ctx,
			bson.M{"_id": listingID, "expiresAt": bson.M{"$lt": now}},
			bson.M{
				"$set":         bson.M{"token": token, "expiresAt": now.Add(l.opts.TTL)},
				"$setOnInsert": bson.M{"createdAt": now},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to acquire listing lock: %w", err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := l.coll.DeleteOne(ctx, bson.M{"_id": listingID, "token": token}); err != nil {
			return fmt.Errorf("failed to release listing lock: %w", err)
		}
		return nil
	}, nil
}

// EnsureIndexes lets Mongo reap abandoned locks.
func (l *MongoLocker) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := l.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("lock_ttl_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create listing lock indexes: %w", err)
	}
	return nil
}
