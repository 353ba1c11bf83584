package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"groundandgrow/models"
)

// ReserveSlot performs a transactional check-and-insert. Two concurrent
// requests for overlapping intervals both reach this point after passing
// the application-level availability check; the transaction (plus the
// partial unique index on psychologistId+appointmentAt) guarantees only
// one insert survives.
func (r *mongoBookingRepo) ReserveSlot(ctx context.Context, booking *models.Booking) error {
	newID(booking)
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	start := booking.AppointmentAt
	end := booking.End()

	txnFn := func(sc mongo.SessionContext) error {
		// Half-open overlap: existing.start < end && existing.end > start.
		// The end must be computed from durationMinutes, hence $expr.
		filter := bson.M{
			"psychologistId": booking.PsychologistID,
			"status":         bson.M{"$in": occupyingStatuses},
			"appointmentAt":  bson.M{"$lt": end},
			"$expr": bson.M{
				"$gt": bson.A{
					bson.M{"$add": bson.A{
						"$appointmentAt",
						bson.M{"$multiply": bson.A{"$durationMinutes", 60000}},
					}},
					start,
				},
			},
		}

		count, err := r.coll.CountDocuments(sc, filter)
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		if count > 0 {
			return ErrSlotTaken
		}

		if _, err := r.coll.InsertOne(sc, booking); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	}

	if err := r.inTransaction(ctx, sess, txnFn); err != nil {
		return err
	}

	return nil
}

// MoveSlot transactionally re-checks the target interval and rewrites the
// appointment time. The overlap filter excludes the booking itself so a
// confirmed booking never collides with its own document when moving.
func (r *mongoBookingRepo) MoveSlot(ctx context.Context, booking *models.Booking, newAppointmentAt time.Time) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	start := newAppointmentAt
	end := newAppointmentAt.Add(time.Duration(booking.DurationMinutes) * time.Minute)
	now := time.Now()

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{
			"id":             bson.M{"$ne": booking.ID},
			"psychologistId": booking.PsychologistID,
			"status":         bson.M{"$in": occupyingStatuses},
			"appointmentAt":  bson.M{"$lt": end},
			"$expr": bson.M{
				"$gt": bson.A{
					bson.M{"$add": bson.A{
						"$appointmentAt",
						bson.M{"$multiply": bson.A{"$durationMinutes", 60000}},
					}},
					start,
				},
			},
		}

		count, err := r.coll.CountDocuments(sc, filter)
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		if count > 0 {
			return ErrSlotTaken
		}

		update := bson.M{"$set": bson.M{"appointmentAt": newAppointmentAt, "updatedAt": now}}
		res, err := r.coll.UpdateOne(sc, bson.M{"id": booking.ID}, update)
		if err != nil {
			return fmt.Errorf("move booking failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	}

	if err := r.inTransaction(ctx, sess, txnFn); err != nil {
		return err
	}

	booking.AppointmentAt = newAppointmentAt
	booking.UpdatedAt = now
	return nil
}

func (r *mongoBookingRepo) inTransaction(ctx context.Context, sess mongo.Session, txnFn func(mongo.SessionContext) error) error {
	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}
