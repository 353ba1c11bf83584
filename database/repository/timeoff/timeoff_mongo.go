package timeoffRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groundandgrow/database"
	"groundandgrow/models"
)

const queryTimeout = 5 * time.Second

type TimeOffRepository interface {
	Create(ctx context.Context, timeOff *models.TimeOff) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.TimeOff, error)
	ListByPsychologist(ctx context.Context, psychologistID string) ([]models.TimeOff, error)
	EnsureIndexes() error
}

type mongoTimeOffRepo struct {
	coll *mongo.Collection
}

// NewMongoTimeOffRepo constructs a new MongoDB TimeOffRepository.
func NewMongoTimeOffRepo() TimeOffRepository {
	return &mongoTimeOffRepo{
		coll: database.DB().Collection("timeoffs"),
	}
}

func (r *mongoTimeOffRepo) Create(ctx context.Context, timeOff *models.TimeOff) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if timeOff.ID == "" {
		timeOff.ID = uuid.New().String()
	}
	timeOff.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, timeOff); err != nil {
		return fmt.Errorf("failed to insert time off: %w", err)
	}
	return nil
}

func (r *mongoTimeOffRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete time off %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoTimeOffRepo) GetByID(ctx context.Context, id string) (*models.TimeOff, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var timeOff models.TimeOff
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&timeOff); err != nil {
		return nil, err
	}
	return &timeOff, nil
}

func (r *mongoTimeOffRepo) ListByPsychologist(ctx context.Context, psychologistID string) ([]models.TimeOff, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "startAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"psychologistId": psychologistID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var periods []models.TimeOff
	if err := cursor.All(ctx, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (r *mongoTimeOffRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "psychologistId", Value: 1}, {Key: "startAt", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create time off indexes: %w", err)
	}
	return nil
}
