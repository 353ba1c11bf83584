package psychRepo

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

type PsychologistRepository interface {
	Create(ctx context.Context, psychologist *models.Psychologist) error
	Update(ctx context.Context, psychologist *models.Psychologist) error
	GetByID(ctx context.Context, id string) (*models.Psychologist, error)
	GetByEmail(ctx context.Context, email string) (*models.Psychologist, error)
	ListActive(ctx context.Context) ([]models.Psychologist, error)
	UpdateTokenHash(ctx context.Context, id, tokenHash string) error
	EnsureIndexes() error
}

type mongoPsychologistRepo struct {
	coll *mongo.Collection
}

// NewMongoPsychologistRepo constructs a new MongoDB PsychologistRepository.
func NewMongoPsychologistRepo() PsychologistRepository {
	return &mongoPsychologistRepo{
		coll: database.DB().Collection("psychologists"),
	}
}

func (r *mongoPsychologistRepo) Create(ctx context.Context, psychologist *models.Psychologist) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if psychologist.ID == "" {
		psychologist.ID = uuid.New().String()
	}
	now := time.Now()
	psychologist.CreatedAt = now
	psychologist.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, psychologist); err != nil {
		return fmt.Errorf("failed to insert psychologist: %w", err)
	}
	return nil
}

func (r *mongoPsychologistRepo) Update(ctx context.Context, psychologist *models.Psychologist) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	psychologist.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": psychologist.ID}, psychologist)
	if err != nil {
		return fmt.Errorf("failed to update psychologist %s: %w", psychologist.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoPsychologistRepo) GetByID(ctx context.Context, id string) (*models.Psychologist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var psychologist models.Psychologist
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&psychologist); err != nil {
		return nil, err
	}
	return &psychologist, nil
}

func (r *mongoPsychologistRepo) GetByEmail(ctx context.Context, email string) (*models.Psychologist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var psychologist models.Psychologist
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&psychologist); err != nil {
		return nil, err
	}
	return &psychologist, nil
}

func (r *mongoPsychologistRepo) ListActive(ctx context.Context) ([]models.Psychologist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var psychologists []models.Psychologist
	if err := cursor.All(ctx, &psychologists); err != nil {
		return nil, err
	}
	return psychologists, nil
}

func (r *mongoPsychologistRepo) UpdateTokenHash(ctx context.Context, id, tokenHash string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"tokenHash": tokenHash, "updatedAt": time.Now()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update token hash for %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (r *mongoPsychologistRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create psychologist indexes: %w", err)
	}
	return nil
}
