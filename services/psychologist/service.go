package psychologist

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "groundandgrow/database/repository/booking"
	psychRepo "groundandgrow/database/repository/psychologist"
	"groundandgrow/models"
	"groundandgrow/services/message"
	"groundandgrow/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("psychologist not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const signInTokenTTL = 24 * time.Hour

// Service covers the authenticated psychologist surface: sign-in, profile,
// dashboard, appointment listings, and the derived client views.
type Service struct {
	Psychologists psychRepo.PsychologistRepository
	Bookings      bookingRepo.BookingRepository
	Messages      *message.Service
	Now           func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Directory lists the active psychologists for the public booking page.
func (s *Service) Directory(ctx context.Context) ([]models.Psychologist, error) {
	return s.Psychologists.ListActive(ctx)
}

// Profile returns one psychologist by id.
func (s *Service) Profile(ctx context.Context, id string) (*models.Psychologist, error) {
	psych, err := s.Psychologists.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return psych, nil
}

// UpdateProfile writes the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id string, updated *models.Psychologist) (*models.Psychologist, error) {
	psych, err := s.Psychologists.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	psych.FirstName = updated.FirstName
	psych.LastName = updated.LastName
	psych.Title = updated.Title
	psych.Bio = updated.Bio
	psych.Phone = updated.Phone
	psych.Specializations = updated.Specializations
	psych.UpdatedAt = s.now()

	if err := s.Psychologists.Update(ctx, psych); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return psych, nil
}

// SignIn checks the password and issues a fresh token, storing its hash so
// stolen tokens can be revoked server-side.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *models.Psychologist, error) {
	psych, err := s.Psychologists.GetByEmail(ctx, email)
	if err != nil || !psych.Active {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(psych.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(psych.ID, psych.Email, signInTokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.Psychologists.UpdateTokenHash(ctx, psych.ID, utils.HashToken(token)); err != nil {
		return "", nil, fmt.Errorf("failed to store token hash: %w", err)
	}

	utils.GetLogger().Info("psychologist signed in", zap.String("psychologistID", psych.ID))
	return token, psych, nil
}

// SignOut revokes the current token.
func (s *Service) SignOut(ctx context.Context, id string) error {
	return s.Psychologists.UpdateTokenHash(ctx, id, "")
}

// Appointments lists the psychologist's bookings, optionally filtered by
// status and date window.
func (s *Service) Appointments(ctx context.Context, id string, filter bookingRepo.ListFilter) ([]models.Booking, error) {
	return s.Bookings.ListByPsychologist(ctx, id, filter)
}
