package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "groundandgrow/database/repository/booking"
	psychRepo "groundandgrow/database/repository/psychologist"
	sessionTypeRepo "groundandgrow/database/repository/sessiontype"
	"groundandgrow/models"
	"groundandgrow/services/availability"
	"groundandgrow/services/notification"
	"groundandgrow/services/payment"
	"groundandgrow/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service owns the guest booking lifecycle: creation with payment gating,
// webhook-driven confirmation, cancellation with the refund policy, and
// reschedules. Every slot-occupying write goes through the availability
// engine check plus the repository's transactional reserve.
type Service struct {
	Bookings      bookingRepo.BookingRepository
	Psychologists psychRepo.PsychologistRepository
	SessionTypes  sessionTypeRepo.SessionTypeRepository
	Availability  *availability.Engine
	Payments      payment.Gateway
	Notifications notification.NotificationService
	// NoticePeriod is how far ahead of the appointment a cancellation must
	// land to qualify for a refund.
	NoticePeriod time.Duration
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates the request, reserves the slot, and opens a checkout
// session. The booking starts in pending_payment and occupies the slot
// immediately so no one else can take it while the guest pays.
func (s *Service) Create(ctx context.Context, req *models.BookingRequest) (*models.CheckoutSessionResponse, error) {
	logger := utils.GetLogger()

	psych, err := s.Psychologists.GetByID(ctx, req.PsychologistID)
	if err != nil || !psych.Active {
		return nil, ErrPsychologistNotFound
	}
	sessionType, err := s.SessionTypes.GetByID(ctx, req.SessionTypeID)
	if err != nil || !sessionType.Active {
		return nil, ErrSessionTypeNotFound
	}
	if !modalityOffered(sessionType, req.Modality) {
		return nil, &PolicyViolationError{Message: fmt.Sprintf("modality %q is not offered for this session type", req.Modality)}
	}
	if !req.AppointmentAt.After(s.now()) {
		return nil, &PolicyViolationError{Message: "appointment time must be in the future"}
	}

	free, err := s.Availability.IsSlotFree(ctx, req.PsychologistID, req.AppointmentAt, sessionType.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot availability: %w", err)
	}
	if !free {
		return nil, ErrSlotUnavailable
	}

	now := s.now()
	booking := &models.Booking{
		ID:              uuid.New().String(),
		AccessToken:     uuid.New().String(),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		PsychologistID:  req.PsychologistID,
		SessionTypeID:   req.SessionTypeID,
		AppointmentAt:   req.AppointmentAt,
		DurationMinutes: sessionType.DurationMinutes,
		Modality:        req.Modality,
		Amount:          sessionType.Price,
		PaymentStatus:   models.PaymentPending,
		Status:          models.StatusPendingPayment,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Bookings.ReserveSlot(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("failed to reserve slot: %w", err)
	}

	description := fmt.Sprintf("%s with %s", sessionType.Name, psych.FullName())
	session, err := s.Payments.CreateCheckoutSession(ctx, booking.ID, booking.Email, description, payment.Cents(booking.Amount))
	if err != nil {
		// Release the slot; a booking with no way to pay must not hold it.
		if delErr := s.Bookings.Delete(ctx, booking.ID); delErr != nil {
			logger.Error("failed to release slot after checkout failure",
				zap.String("bookingID", booking.ID), zap.Error(delErr))
		}
		return nil, &GatewayError{Op: "checkout", Err: err}
	}

	booking.CheckoutSessionID = session.ID
	booking.UpdatedAt = s.now()
	if err := s.Bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to attach checkout session: %w", err)
	}

	logger.Info("booking created, awaiting payment",
		zap.String("bookingID", booking.ID),
		zap.String("psychologistID", booking.PsychologistID),
		zap.Time("appointmentAt", booking.AppointmentAt))

	return &models.CheckoutSessionResponse{
		BookingID:         booking.ID,
		CheckoutSessionID: session.ID,
		CheckoutURL:       session.URL,
		AccessToken:       booking.AccessToken,
	}, nil
}

// GetByToken returns the booking the guest's access token points at.
func (s *Service) GetByToken(ctx context.Context, accessToken string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// ListByEmail returns all bookings placed under an email address, newest
// appointment first.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	return s.Bookings.ListByEmail(ctx, email)
}

func (s *Service) psychologistName(ctx context.Context, psychologistID string) string {
	psych, err := s.Psychologists.GetByID(ctx, psychologistID)
	if err != nil {
		return "your psychologist"
	}
	return psych.FullName()
}

func modalityOffered(sessionType *models.SessionType, modality string) bool {
	for _, m := range sessionType.Modalities {
		if m == modality {
			return true
		}
	}
	return false
}
