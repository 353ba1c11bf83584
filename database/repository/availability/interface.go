package availabilityRepo

import (
	"context"

	"groundandgrow/database"
	"groundandgrow/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, availability *models.Availability) error
	Update(ctx context.Context, availability *models.Availability) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Availability, error)
	ListByPsychologist(ctx context.Context, psychologistID string) ([]models.Availability, error)
	ListByPsychologistAndDay(ctx context.Context, psychologistID, dayOfWeek string) ([]models.Availability, error)
	EnsureIndexes() error
}

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a new MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo() AvailabilityRepository {
	return &mongoAvailabilityRepo{
		coll: database.DB().Collection("availabilities"),
	}
}
