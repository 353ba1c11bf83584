package notification

import (
	"context"
	"fmt"

	"groundandgrow/models"
	"groundandgrow/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const appointmentTimeLayout = "Monday, January 2, 2006 at 3:04 PM"

// Schedule persists the intent with pending status. Missing fields are
// defaulted so callers can pass a minimally populated intent.
func (s *DefaultNotificationService) Schedule(ctx context.Context, notification *models.Notification) error {
	now := s.now()
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	if notification.ScheduledFor.IsZero() {
		notification.ScheduledFor = now
	}
	if notification.DeliveryMethod == "" {
		notification.DeliveryMethod = models.DeliverEmail
	}
	notification.Status = models.NotificationPending
	notification.RetryCount = 0
	notification.CreatedAt = now
	notification.UpdatedAt = now

	if err := s.Repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}

	utils.GetLogger().Info("notification queued",
		zap.String("notificationID", notification.ID),
		zap.String("type", notification.Type),
		zap.Time("scheduledFor", notification.ScheduledFor))
	return nil
}

// SendBookingConfirmation queues an immediate confirmation for the guest.
func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, booking *models.Booking, psychologistName string) error {
	when := booking.AppointmentAt.Format(appointmentTimeLayout)
	return s.Schedule(ctx, &models.Notification{
		RecipientID:    booking.Email,
		RecipientType:  "guest",
		RecipientEmail: booking.Email,
		RecipientPhone: booking.Phone,
		Type:           models.TypeBookingConfirmation,
		DeliveryMethod: deliveryFor(booking),
		Subject:        "Your appointment is confirmed",
		Message: fmt.Sprintf("Hi %s, your %d-minute session with %s on %s is confirmed. You can manage your booking using the link in this message.",
			booking.FirstName, booking.DurationMinutes, psychologistName, when),
		BookingID: booking.ID,
	})
}

// ScheduleAppointmentReminder queues a reminder ReminderLead before the
// appointment. Returns false when the reminder time is already in the past.
func (s *DefaultNotificationService) ScheduleAppointmentReminder(ctx context.Context, booking *models.Booking, psychologistName string) (bool, error) {
	remindAt := booking.AppointmentAt.Add(-s.ReminderLead)
	if !remindAt.After(s.now()) {
		utils.GetLogger().Debug("skipping reminder, lead time already passed",
			zap.String("bookingID", booking.ID),
			zap.Time("appointmentAt", booking.AppointmentAt))
		return false, nil
	}

	when := booking.AppointmentAt.Format(appointmentTimeLayout)
	err := s.Schedule(ctx, &models.Notification{
		RecipientID:    booking.Email,
		RecipientType:  "guest",
		RecipientEmail: booking.Email,
		RecipientPhone: booking.Phone,
		Type:           models.TypeReminder,
		DeliveryMethod: deliveryFor(booking),
		Subject:        "Appointment reminder",
		Message: fmt.Sprintf("Hi %s, this is a reminder of your session with %s on %s.",
			booking.FirstName, psychologistName, when),
		ScheduledFor: remindAt,
		BookingID:    booking.ID,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SendCancellationConfirmation queues an immediate cancellation notice.
func (s *DefaultNotificationService) SendCancellationConfirmation(ctx context.Context, booking *models.Booking, psychologistName string) error {
	when := booking.AppointmentAt.Format(appointmentTimeLayout)
	return s.Schedule(ctx, &models.Notification{
		RecipientID:    booking.Email,
		RecipientType:  "guest",
		RecipientEmail: booking.Email,
		RecipientPhone: booking.Phone,
		Type:           models.TypeCancellation,
		DeliveryMethod: deliveryFor(booking),
		Subject:        "Your appointment has been cancelled",
		Message: fmt.Sprintf("Hi %s, your session with %s on %s has been cancelled.",
			booking.FirstName, psychologistName, when),
		BookingID: booking.ID,
	})
}

// NotifyMessageReceived tells a recipient a new secure message is waiting.
// The message content itself never leaves the portal.
func (s *DefaultNotificationService) NotifyMessageReceived(ctx context.Context, recipientID, recipientType, email, senderName string) error {
	return s.Schedule(ctx, &models.Notification{
		RecipientID:    recipientID,
		RecipientType:  recipientType,
		RecipientEmail: email,
		Type:           models.TypeMessageReceived,
		DeliveryMethod: models.DeliverEmail,
		Subject:        "New message received",
		Message:        fmt.Sprintf("You have a new message from %s. Sign in to your portal to read it.", senderName),
	})
}

func (s *DefaultNotificationService) CancelPendingForBooking(ctx context.Context, bookingID string) error {
	return s.Repo.CancelPendingForBooking(ctx, bookingID)
}

func (s *DefaultNotificationService) ListForBooking(ctx context.Context, bookingID string) ([]models.Notification, error) {
	return s.Repo.ListByBooking(ctx, bookingID)
}

const defaultLogLimit = 50

func (s *DefaultNotificationService) ListRecent(ctx context.Context, limit int64) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return s.Repo.ListRecent(ctx, limit)
}

func deliveryFor(booking *models.Booking) string {
	if booking.Phone != "" {
		return models.DeliverBoth
	}
	return models.DeliverEmail
}

var _ NotificationService = (*DefaultNotificationService)(nil)
