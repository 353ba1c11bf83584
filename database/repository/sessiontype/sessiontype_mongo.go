package sessionTypeRepo

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

type SessionTypeRepository interface {
	Create(ctx context.Context, sessionType *models.SessionType) error
	GetByID(ctx context.Context, id string) (*models.SessionType, error)
	ListActive(ctx context.Context) ([]models.SessionType, error)
	EnsureIndexes() error
}

type mongoSessionTypeRepo struct {
	coll *mongo.Collection
}

// NewMongoSessionTypeRepo constructs a new MongoDB SessionTypeRepository.
func NewMongoSessionTypeRepo() SessionTypeRepository {
	return &mongoSessionTypeRepo{
		coll: database.DB().Collection("session_types"),
	}
}

func (r *mongoSessionTypeRepo) Create(ctx context.Context, sessionType *models.SessionType) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if sessionType.ID == "" {
		sessionType.ID = uuid.New().String()
	}
	sessionType.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, sessionType); err != nil {
		return fmt.Errorf("failed to insert session type: %w", err)
	}
	return nil
}

func (r *mongoSessionTypeRepo) GetByID(ctx context.Context, id string) (*models.SessionType, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sessionType models.SessionType
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sessionType); err != nil {
		return nil, err
	}
	return &sessionType, nil
}

func (r *mongoSessionTypeRepo) ListActive(ctx context.Context) ([]models.SessionType, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessionTypes []models.SessionType
	if err := cursor.All(ctx, &sessionTypes); err != nil {
		return nil, err
	}
	return sessionTypes, nil
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (r *mongoSessionTypeRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create session type indexes: %w", err)
	}
	return nil
}
