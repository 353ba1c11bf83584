package messageRepo

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

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	Update(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByThread(ctx context.Context, threadID string) ([]models.Message, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]models.Message, error)
	ListUnread(ctx context.Context, receiverID string) ([]models.Message, error)
	ListByUser(ctx context.Context, userID string) ([]models.Message, error)
	EnsureIndexes() error
}

type mongoMessageRepo struct {
	coll *mongo.Collection
}

// NewMongoMessageRepo constructs a new MongoDB MessageRepository.
func NewMongoMessageRepo() MessageRepository {
	return &mongoMessageRepo{
		coll: database.DB().Collection("messages"),
	}
}

func (r *mongoMessageRepo) Create(ctx context.Context, message *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *mongoMessageRepo) Update(ctx context.Context, message *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": message.ID}, message)
	if err != nil {
		return fmt.Errorf("failed to update message %s: %w", message.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var message models.Message
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&message); err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *mongoMessageRepo) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	return r.list(ctx, bson.M{"threadId": threadID, "deleted": false}, 1)
}

func (r *mongoMessageRepo) ListByAppointment(ctx context.Context, appointmentID string) ([]models.Message, error) {
	return r.list(ctx, bson.M{"appointmentId": appointmentID, "deleted": false}, 1)
}

func (r *mongoMessageRepo) ListUnread(ctx context.Context, receiverID string) ([]models.Message, error) {
	return r.list(ctx, bson.M{"receiverId": receiverID, "isRead": false, "deleted": false}, -1)
}

func (r *mongoMessageRepo) ListByUser(ctx context.Context, userID string) ([]models.Message, error) {
	filter := bson.M{
		"deleted": false,
		"$or": bson.A{
			bson.M{"senderId": userID},
			bson.M{"receiverId": userID},
		},
	}
	return r.list(ctx, filter, -1)
}

func (r *mongoMessageRepo) list(ctx context.Context, filter bson.M, sortDir int) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: sortDir}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (r *mongoMessageRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "threadId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "receiverId", Value: 1}, {Key: "isRead", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}
