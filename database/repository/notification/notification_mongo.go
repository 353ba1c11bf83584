package notificationRepo

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

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	Update(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// ListDue returns pending intents whose scheduled time has passed.
	ListDue(ctx context.Context, now time.Time) ([]models.Notification, error)
	ListByBooking(ctx context.Context, bookingID string) ([]models.Notification, error)
	ListRecent(ctx context.Context, limit int64) ([]models.Notification, error)
	// CountPending reports the undelivered backlog for health monitoring.
	CountPending(ctx context.Context) (int64, error)
	// CancelPendingForBooking marks all pending intents for a booking as
	// cancelled. Intents are never deleted.
	CancelPendingForBooking(ctx context.Context, bookingID string) error
	EnsureIndexes() error
}

type mongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo constructs a new MongoDB NotificationRepository.
func NewMongoNotificationRepo() NotificationRepository {
	return &mongoNotificationRepo{
		coll: database.DB().Collection("notifications"),
	}
}

func (r *mongoNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	now := time.Now()
	notification.CreatedAt = now
	notification.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *mongoNotificationRepo) Update(ctx context.Context, notification *models.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	notification.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": notification.ID}, notification)
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", notification.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var notification models.Notification
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *mongoNotificationRepo) ListDue(ctx context.Context, now time.Time) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"status":       models.NotificationPending,
		"scheduledFor": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledFor", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var due []models.Notification
	if err := cursor.All(ctx, &due); err != nil {
		return nil, err
	}
	return due, nil
}

func (r *mongoNotificationRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"bookingId": bookingID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepo) ListRecent(ctx context.Context, limit int64) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepo) CountPending(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{"status": models.NotificationPending})
}

func (r *mongoNotificationRepo) CancelPendingForBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"bookingId": bookingID, "status": models.NotificationPending}
	update := bson.M{"$set": bson.M{
		"status":    models.NotificationCancelled,
		"updatedAt": time.Now(),
	}}
	if _, err := r.coll.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to cancel notifications for booking %s: %w", bookingID, err)
	}
	return nil
}

// EnsureIndexes creates indexes covering the sweep query.
func (r *mongoNotificationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduledFor", Value: 1}}},
		{Keys: bson.D{{Key: "bookingId", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}
