package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lockbox/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOverlapping uses the half-open test: existing.start < end AND existing.end > start.
func (repo *MongoBookingRepo) FindOverlapping(ctx context.Context, q OverlapQuery) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"listingId": q.ListingID,
		"startDate": bson.M{"$lt": q.End},
		"endDate":   bson.M{"$gt": q.Start},
	}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	if q.ExcludeID != "" {
		filter["id"] = bson.M{"$ne": q.ExcludeID}
	}
	if clauses := holdClauses(q.Hold); clauses != nil {
		filter["$or"] = clauses
	}
	return repo.find(ctx, filter, nil)
}

// holdClauses mirrors models.Booking.Holds. A missing disputedFrom matches null.
func holdClauses(h models.DateHold) bson.A {
	committed := bson.A{
		bson.M{"status": bson.M{"$in": bson.A{models.StatusApprove, models.StatusDispute}}},
		bson.M{"type": models.TypeDispute, "disputedFrom": bson.M{"$in": bson.A{models.StatusApprove, nil}}},
	}
	switch h {
	case models.HoldCommitted:
		return committed
	case models.HoldRequested:
		return append(committed, bson.M{"type": models.TypeFuture, "status": models.StatusUnderReview})
	}
	return nil
}

// PromoteStarted moves approved future bookings whose stay has begun to current.
func (repo *MongoBookingRepo) PromoteStarted(ctx context.Context, now time.Time) ([]string, error) {
	filter := bson.M{
		"type":      models.TypeFuture,
		"status":    models.StatusApprove,
		"startDate": bson.M{"$lte": now},
	}
	return repo.advance(ctx, filter, models.TypeCurrent, now)
}

// RetireEnded moves approved current bookings whose stay has ended to past.
func (repo *MongoBookingRepo) RetireEnded(ctx context.Context, now, promotedBefore time.Time) ([]string, error) {
	filter := bson.M{
		"type":           models.TypeCurrent,
		"status":         models.StatusApprove,
		"endDate":        bson.M{"$lt": now},
		"phaseChangedAt": bson.M{"$lt": promotedBefore},
	}
	return repo.advance(ctx, filter, models.TypePast, now)
}

// advance updates matching bookings one document at a time, re-applying the
// filter on each write so a concurrent sweep or decision cannot be undone.
// A failed write is reported after the remaining candidates are tried.
func (repo *MongoBookingRepo) advance(ctx context.Context, filter bson.M, to models.BookingType, now time.Time) ([]string, error) {
	candidates, err := repo.find(ctx, filter, options.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return nil, err
	}

	var moved []string
	var errs []error
	for _, c := range candidates {
		uctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		perDoc := bson.M{"id": c.ID}
		for k, v := range filter {
			perDoc[k] = v
		}
		res, err := repo.coll.UpdateOne(uctx, perDoc, bson.M{"$set": bson.M{
			"type":           to,
			"phaseChangedAt": now,
			"updatedAt":      now,
		}})
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("error advancing booking %s to %s: %w", c.ID, to, err))
			continue
		}
		if res.ModifiedCount > 0 {
			moved = append(moved, c.ID)
		}
	}
	return moved, errors.Join(errs...)
}

func (repo *MongoBookingRepo) ListByPhase(ctx context.Context, typ models.BookingType, status models.BookingStatus) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return repo.find(ctx, bson.M{"type": typ, "status": status}, nil)
}

// ListEndingBetween returns bookings in the phase whose endDate falls in [from, to].
func (repo *MongoBookingRepo) ListEndingBetween(ctx context.Context, typ models.BookingType, status models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"type":    typ,
		"status":  status,
		"endDate": bson.M{"$gte": from, "$lte": to},
	}
	return repo.find(ctx, filter, nil)
}

// ListForUser pages through the bookings a user rents or hosts, newest first.
func (repo *MongoBookingRepo) ListForUser(ctx context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.Role == models.RoleHost {
		filter["hostId"] = f.UserID
	} else {
		filter["renterId"] = f.UserID
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}

	total, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(f.Skip())).
		SetLimit(int64(f.Limit))
	bookings, err := repo.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (repo *MongoBookingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := repo.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
