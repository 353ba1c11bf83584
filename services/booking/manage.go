package booking

import (
	"context"
	"fmt"

	"groundandgrow/models"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

// allowedStatusTargets are the statuses a psychologist may write onto a
// confirmed appointment.
var allowedStatusTargets = map[string]bool{
	models.StatusCompleted: true,
	models.StatusNoShow:    true,
	models.StatusCancelled: true,
}

// UpdateStatus records the outcome of an appointment. Only confirmed
// bookings can move, and only to completed, no_show, or cancelled.
func (s *Service) UpdateStatus(ctx context.Context, psychologistID, bookingID, status, reason string) (*models.Booking, error) {
	booking, err := s.ownedBooking(ctx, psychologistID, bookingID)
	if err != nil {
		return nil, err
	}
	if !allowedStatusTargets[status] {
		return nil, &InvalidTransitionError{From: booking.Status, To: status}
	}
	if booking.Status != models.StatusConfirmed {
		return nil, &InvalidTransitionError{From: booking.Status, To: status}
	}

	booking.Status = status
	if status == models.StatusCancelled {
		booking.CancellationReason = reason
	}
	booking.UpdatedAt = s.now()
	if err := s.Bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	if status == models.StatusCancelled {
		if err := s.Notifications.CancelPendingForBooking(ctx, booking.ID); err != nil {
			utils.GetLogger().Error("failed to cancel pending notifications",
				zap.String("bookingID", booking.ID), zap.Error(err))
		}
		name := s.psychologistName(ctx, booking.PsychologistID)
		if err := s.Notifications.SendCancellationConfirmation(ctx, booking, name); err != nil {
			utils.GetLogger().Error("failed to queue cancellation notice",
				zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}

	utils.GetLogger().Info("booking status updated",
		zap.String("bookingID", booking.ID), zap.String("status", status))
	return booking, nil
}

// AddNotes attaches the psychologist's private session notes. Notes are
// never exposed on guest-facing reads.
func (s *Service) AddNotes(ctx context.Context, psychologistID, bookingID, notes string) (*models.Booking, error) {
	booking, err := s.ownedBooking(ctx, psychologistID, bookingID)
	if err != nil {
		return nil, err
	}

	booking.PsychologistNotes = notes
	booking.UpdatedAt = s.now()
	if err := s.Bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to save notes: %w", err)
	}
	return booking, nil
}

// AppointmentNotifications returns the delivery log for one appointment,
// owner-checked. Cancelled and failed intents stay in the log.
func (s *Service) AppointmentNotifications(ctx context.Context, psychologistID, bookingID string) ([]models.Notification, error) {
	if _, err := s.ownedBooking(ctx, psychologistID, bookingID); err != nil {
		return nil, err
	}
	return s.Notifications.ListForBooking(ctx, bookingID)
}

// GetForPsychologist returns a booking only if it belongs to the caller.
func (s *Service) GetForPsychologist(ctx context.Context, psychologistID, bookingID string) (*models.Booking, error) {
	return s.ownedBooking(ctx, psychologistID, bookingID)
}

func (s *Service) ownedBooking(ctx context.Context, psychologistID, bookingID string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.PsychologistID != psychologistID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}
