package notification

import (
	"context"
	"time"

	notificationRepo "groundandgrow/database/repository/notification"
	"groundandgrow/models"
)

// NotificationService queues delivery intents. Nothing here talks to a
// provider; delivery happens asynchronously in the sweeper.
type NotificationService interface {
	// Schedule persists an intent for later delivery.
	Schedule(ctx context.Context, notification *models.Notification) error

	SendBookingConfirmation(ctx context.Context, booking *models.Booking, psychologistName string) error
	// ScheduleAppointmentReminder queues a reminder ahead of the appointment.
	// No intent is created when the reminder time has already passed.
	ScheduleAppointmentReminder(ctx context.Context, booking *models.Booking, psychologistName string) (bool, error)
	SendCancellationConfirmation(ctx context.Context, booking *models.Booking, psychologistName string) error
	NotifyMessageReceived(ctx context.Context, recipientID, recipientType, email, senderName string) error

	// CancelPendingForBooking marks a booking's undelivered intents cancelled.
	CancelPendingForBooking(ctx context.Context, bookingID string) error
	ListForBooking(ctx context.Context, bookingID string) ([]models.Notification, error)
	// ListRecent returns the newest intents across all bookings for the
	// portal's delivery log. A non-positive limit falls back to the default.
	ListRecent(ctx context.Context, limit int64) ([]models.Notification, error)
}

// DefaultNotificationService is the production implementation backed by the
// notification intents collection.
type DefaultNotificationService struct {
	Repo         notificationRepo.NotificationRepository
	ReminderLead time.Duration
	Now          func() time.Time
}

func NewNotificationService(repo notificationRepo.NotificationRepository, reminderLead time.Duration) *DefaultNotificationService {
	return &DefaultNotificationService{
		Repo:         repo,
		ReminderLead: reminderLead,
	}
}

func (s *DefaultNotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
