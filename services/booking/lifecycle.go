package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "groundandgrow/database/repository/booking"
	"groundandgrow/models"
	"groundandgrow/services/payment"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

// HandlePaymentSuccess confirms the booking attached to a completed checkout
// session. Replayed events are absorbed: a booking that is already confirmed
// is left untouched and no duplicate notifications are queued.
func (s *Service) HandlePaymentSuccess(ctx context.Context, checkoutSessionID, paymentIntentID string) error {
	logger := utils.GetLogger()

	booking, err := s.Bookings.GetByCheckoutSessionID(ctx, checkoutSessionID)
	if err != nil {
		return ErrBookingNotFound
	}
	if booking.Status == models.StatusConfirmed {
		logger.Debug("payment success replayed, booking already confirmed",
			zap.String("bookingID", booking.ID))
		return nil
	}
	if booking.Status != models.StatusPendingPayment {
		logger.Warn("payment success for booking no longer pending",
			zap.String("bookingID", booking.ID), zap.String("status", booking.Status))
		return nil
	}

	booking.Status = models.StatusConfirmed
	booking.PaymentStatus = models.PaymentCompleted
	booking.PaymentIntentID = paymentIntentID
	booking.UpdatedAt = s.now()
	if err := s.Bookings.Update(ctx, booking); err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	logger.Info("booking confirmed",
		zap.String("bookingID", booking.ID),
		zap.Time("appointmentAt", booking.AppointmentAt))

	name := s.psychologistName(ctx, booking.PsychologistID)
	if err := s.Notifications.SendBookingConfirmation(ctx, booking, name); err != nil {
		logger.Error("failed to queue booking confirmation",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}
	scheduled, err := s.Notifications.ScheduleAppointmentReminder(ctx, booking, name)
	if err != nil {
		logger.Error("failed to queue appointment reminder",
			zap.String("bookingID", booking.ID), zap.Error(err))
	} else if scheduled {
		booking.ReminderSent = true
		booking.UpdatedAt = s.now()
		if err := s.Bookings.Update(ctx, booking); err != nil {
			logger.Error("failed to record reminder flag",
				zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}
	return nil
}

// HandlePaymentFailure releases the slot held by a booking whose checkout
// expired or failed. Idempotent: a booking already out of pending_payment is
// left alone.
func (s *Service) HandlePaymentFailure(ctx context.Context, checkoutSessionID string) error {
	logger := utils.GetLogger()

	booking, err := s.Bookings.GetByCheckoutSessionID(ctx, checkoutSessionID)
	if err != nil {
		return ErrBookingNotFound
	}
	if booking.Status != models.StatusPendingPayment {
		logger.Debug("payment failure replayed or superseded",
			zap.String("bookingID", booking.ID), zap.String("status", booking.Status))
		return nil
	}

	booking.Status = models.StatusCancelled
	booking.PaymentStatus = models.PaymentFailed
	booking.CancellationReason = "payment not completed"
	booking.UpdatedAt = s.now()
	if err := s.Bookings.Update(ctx, booking); err != nil {
		return fmt.Errorf("failed to release unpaid booking: %w", err)
	}

	logger.Info("unpaid booking released", zap.String("bookingID", booking.ID))
	return nil
}

// Cancel cancels a confirmed booking on behalf of the guest. The status
// write always lands first; the refund is attempted afterwards and a refund
// failure is reported in the response, never by rolling the cancel back.
func (s *Service) Cancel(ctx context.Context, accessToken, reason string) (*models.CancellationResponse, error) {
	logger := utils.GetLogger()

	booking, err := s.Bookings.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.Status != models.StatusConfirmed {
		return nil, &InvalidTransitionError{From: booking.Status, To: models.StatusCancelled}
	}

	now := s.now()
	// Eligible exactly at the notice boundary: cancelling NoticePeriod
	// before the appointment still refunds.
	refundEligible := !now.After(booking.AppointmentAt.Add(-s.NoticePeriod)) &&
		booking.PaymentIntentID != "" &&
		booking.PaymentStatus == models.PaymentCompleted

	booking.Status = models.StatusCancelled
	booking.CancellationReason = reason
	booking.UpdatedAt = now
	if err := s.Bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := s.Notifications.CancelPendingForBooking(ctx, booking.ID); err != nil {
		logger.Error("failed to cancel pending notifications",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}

	resp := &models.CancellationResponse{
		BookingID:      booking.ID,
		Cancelled:      true,
		RefundEligible: refundEligible,
	}

	if refundEligible {
		if _, err := s.Payments.CreateRefund(ctx, booking.PaymentIntentID, payment.Cents(booking.Amount)); err != nil {
			// The cancellation stands; surface the refund failure for
			// manual follow-up.
			logger.Error("refund failed after cancellation",
				zap.String("bookingID", booking.ID), zap.Error(err))
			resp.RefundError = err.Error()
		} else {
			booking.PaymentStatus = models.PaymentRefunded
			booking.UpdatedAt = s.now()
			if err := s.Bookings.Update(ctx, booking); err != nil {
				logger.Error("failed to record refund",
					zap.String("bookingID", booking.ID), zap.Error(err))
			}
			resp.RefundProcessed = true
			resp.RefundAmount = booking.Amount
		}
	}

	name := s.psychologistName(ctx, booking.PsychologistID)
	if err := s.Notifications.SendCancellationConfirmation(ctx, booking, name); err != nil {
		logger.Error("failed to queue cancellation confirmation",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}

	logger.Info("booking cancelled",
		zap.String("bookingID", booking.ID),
		zap.Bool("refundEligible", refundEligible),
		zap.Bool("refundProcessed", resp.RefundProcessed))
	return resp, nil
}

// Reschedule moves a confirmed booking to a new time. The booking keeps its
// identity, payment, and access token; only the appointment time moves.
func (s *Service) Reschedule(ctx context.Context, accessToken string, newAppointmentAt time.Time) (*models.Booking, error) {
	logger := utils.GetLogger()

	booking, err := s.Bookings.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.Status != models.StatusConfirmed {
		return nil, &InvalidTransitionError{From: booking.Status, To: models.StatusConfirmed}
	}
	if !newAppointmentAt.After(s.now()) {
		return nil, &PolicyViolationError{Message: "new appointment time must be in the future"}
	}

	free, err := s.Availability.IsSlotFree(ctx, booking.PsychologistID, newAppointmentAt, booking.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot availability: %w", err)
	}
	if !free {
		return nil, ErrSlotUnavailable
	}

	// The availability check above races concurrent writers; the move itself
	// re-checks overlap inside the transaction.
	if err := s.Bookings.MoveSlot(ctx, booking, newAppointmentAt); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("failed to reschedule booking: %w", err)
	}
	booking.UpdatedAt = s.now()

	// Reminders queued for the old time are stale now.
	if err := s.Notifications.CancelPendingForBooking(ctx, booking.ID); err != nil {
		logger.Error("failed to cancel stale notifications",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}

	name := s.psychologistName(ctx, booking.PsychologistID)
	if err := s.Notifications.SendBookingConfirmation(ctx, booking, name); err != nil {
		logger.Error("failed to queue reschedule confirmation",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}
	scheduled, err := s.Notifications.ScheduleAppointmentReminder(ctx, booking, name)
	if err != nil {
		logger.Error("failed to queue appointment reminder",
			zap.String("bookingID", booking.ID), zap.Error(err))
	} else {
		booking.ReminderSent = scheduled
		booking.UpdatedAt = s.now()
		if err := s.Bookings.Update(ctx, booking); err != nil {
			logger.Error("failed to record reminder flag",
				zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}

	logger.Info("booking rescheduled",
		zap.String("bookingID", booking.ID),
		zap.Time("newAppointmentAt", newAppointmentAt))
	return booking, nil
}
