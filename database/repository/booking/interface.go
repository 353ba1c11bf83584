package bookingRepo

import (
	"context"
	"errors"
	"time"

	"groundandgrow/database"
	"groundandgrow/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSlotTaken is returned by ReserveSlot when another occupying booking
// already overlaps the requested interval. It is the data-write-boundary
// signal that the second of two racing writers lost.
var ErrSlotTaken = errors.New("slot already taken by another booking")

// ListFilter narrows psychologist-side booking queries.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}

type BookingRepository interface {
	// ReserveSlot inserts the booking only if no occupying booking overlaps
	// its [AppointmentAt, End) interval for the same psychologist. The check
	// and the insert run in one transaction; concurrent writers for the same
	// interval serialize here and the loser gets ErrSlotTaken.
	ReserveSlot(ctx context.Context, booking *models.Booking) error

	// MoveSlot rewrites the booking's appointment time with the same
	// transactional overlap check as ReserveSlot, excluding the booking
	// itself. A reschedule racing a create serializes here.
	MoveSlot(ctx context.Context, booking *models.Booking, newAppointmentAt time.Time) error

	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByAccessToken(ctx context.Context, token string) (*models.Booking, error)
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
	ListByEmail(ctx context.Context, email string) ([]models.Booking, error)
	ListByPsychologist(ctx context.Context, psychologistID string, filter ListFilter) ([]models.Booking, error)
	// ListOccupyingBetween returns bookings in an occupying status whose
	// appointment start falls in [from, to).
	ListOccupyingBetween(ctx context.Context, psychologistID string, from, to time.Time) ([]models.Booking, error)
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	return &mongoBookingRepo{
		coll: database.DB().Collection("bookings"),
	}
}
