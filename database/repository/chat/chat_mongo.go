package chatRepo

import (
	"context"
	"fmt"
	"time"

	"lockbox/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoChatRepo struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoChatRepo(db *mongo.Database) *MongoChatRepo {
	return &MongoChatRepo{
		conversations: db.Collection("conversation"),
		messages:      db.Collection("message"),
	}
}

func (r *MongoChatRepo) TouchConversation(ctx context.Context, participants []string, bookingID, lastMessage string) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{
		"participants": bson.M{"$all": participants},
		"bookingId":    bookingID,
	}
	update := bson.M{
		"$set": bson.M{"lastMessage": lastMessage, "updatedAt": now},
		"$setOnInsert": bson.M{
			"id":           uuid.New().String(),
			"participants": participants,
			"createdAt":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv models.Conversation
	if err := r.conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv); err != nil {
		return nil, fmt.Errorf("error upserting conversation: %w", err)
	}
	return &conv, nil
}

func (r *MongoChatRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("error creating message: %w", err)
	}
	return nil
}

func (r *MongoChatRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "bookingId", Value: 1}},
		Options: options.Index().SetName("participants_booking_idx"),
	}); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}
	if _, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("conversation_created_idx"),
	}); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}
