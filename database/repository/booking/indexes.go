package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groundandgrow/models"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "accessToken", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_access_token"),
		},
		{
			Keys:    bson.D{{Key: "checkoutSessionId", Value: 1}},
			Options: options.Index().SetName("checkout_session_idx"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_idx"),
		},
		{
			Keys:    bson.D{{Key: "psychologistId", Value: 1}, {Key: "appointmentAt", Value: 1}},
			Options: options.Index().SetName("psych_appointment_idx"),
		},
		// Backstop for the transactional reserve: no two occupying bookings
		// may share the exact same start for one psychologist. Status belongs
		// in the partial filter only; putting it in the key would let a
		// pending_payment and a confirmed booking coexist at the same start.
		{
			Keys: bson.D{{Key: "psychologistId", Value: 1}, {Key: "appointmentAt", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_occupying_slot").
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": []string{models.StatusPendingPayment, models.StatusConfirmed}},
				}),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
