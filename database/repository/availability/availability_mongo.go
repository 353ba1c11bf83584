package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groundandgrow/models"
)

const queryTimeout = 5 * time.Second

func (r *mongoAvailabilityRepo) Create(ctx context.Context, availability *models.Availability) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if availability.ID == "" {
		availability.ID = uuid.New().String()
	}
	now := time.Now()
	availability.CreatedAt = now
	availability.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, availability); err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) Update(ctx context.Context, availability *models.Availability) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	availability.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": availability.ID}, availability)
	if err != nil {
		return fmt.Errorf("failed to update availability %s: %w", availability.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAvailabilityRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete availability %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAvailabilityRepo) GetByID(ctx context.Context, id string) (*models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var availability models.Availability
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

func (r *mongoAvailabilityRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]models.Availability, error) {
	return r.list(ctx, bson.M{"psychologistId": psychologistID})
}

func (r *mongoAvailabilityRepo) ListByPsychologistAndDay(ctx context.Context, psychologistID, dayOfWeek string) ([]models.Availability, error) {
	return r.list(ctx, bson.M{"psychologistId": psychologistID, "dayOfWeek": dayOfWeek})
}

func (r *mongoAvailabilityRepo) list(ctx context.Context, filter bson.M) ([]models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var availabilities []models.Availability
	if err := cursor.All(ctx, &availabilities); err != nil {
		return nil, err
	}
	return availabilities, nil
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (r *mongoAvailabilityRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "psychologistId", Value: 1}, {Key: "dayOfWeek", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create availability indexes: %w", err)
	}
	return nil
}
