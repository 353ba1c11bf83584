package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groundandgrow/models"
	"groundandgrow/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrWindowNotFound  = errors.New("availability window not found")
	ErrTimeOffNotFound = errors.New("time off period not found")
)

// ValidationError carries a caller-facing message for a rejected calendar edit.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Management owns the psychologist-facing calendar edits. It writes through
// the same repositories the engine reads, so a saved change is visible to the
// next slot computation immediately.
type Management struct {
	Engine *Engine
}

func (m *Management) AddWindow(ctx context.Context, psychologistID string, req *models.AvailabilityRequest) (*models.Availability, error) {
	if err := validateWindowRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	window := &models.Availability{
		ID:             uuid.New().String(),
		PsychologistID: psychologistID,
		DayOfWeek:      req.DayOfWeek,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		IsRecurring:    true,
		EffectiveFrom:  req.EffectiveFrom,
		EffectiveUntil: req.EffectiveUntil,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.Engine.Windows.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to save availability window: %w", err)
	}

	utils.GetLogger().Info("availability window added",
		zap.String("psychologistID", psychologistID),
		zap.String("day", window.DayOfWeek),
		zap.String("start", window.StartTime),
		zap.String("end", window.EndTime))
	return window, nil
}

func (m *Management) UpdateWindow(ctx context.Context, psychologistID, windowID string, req *models.AvailabilityRequest) (*models.Availability, error) {
	if err := validateWindowRequest(req); err != nil {
		return nil, err
	}

	window, err := m.Engine.Windows.GetByID(ctx, windowID)
	if err != nil {
		return nil, ErrWindowNotFound
	}
	if window.PsychologistID != psychologistID {
		return nil, ErrWindowNotFound
	}

	window.DayOfWeek = req.DayOfWeek
	window.StartTime = req.StartTime
	window.EndTime = req.EndTime
	window.EffectiveFrom = req.EffectiveFrom
	window.EffectiveUntil = req.EffectiveUntil
	window.UpdatedAt = time.Now()

	if err := m.Engine.Windows.Update(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to update availability window: %w", err)
	}
	return window, nil
}

func (m *Management) DeleteWindow(ctx context.Context, psychologistID, windowID string) error {
	window, err := m.Engine.Windows.GetByID(ctx, windowID)
	if err != nil {
		return ErrWindowNotFound
	}
	if window.PsychologistID != psychologistID {
		return ErrWindowNotFound
	}
	if err := m.Engine.Windows.Delete(ctx, windowID); err != nil {
		return fmt.Errorf("failed to delete availability window: %w", err)
	}
	return nil
}

func (m *Management) ListWindows(ctx context.Context, psychologistID string) ([]models.Availability, error) {
	return m.Engine.Windows.ListByPsychologist(ctx, psychologistID)
}

func (m *Management) AddTimeOff(ctx context.Context, psychologistID string, req *models.TimeOffRequest) (*models.TimeOff, error) {
	if !req.StartAt.Before(req.EndAt) {
		return nil, invalidf("time off start must be before end")
	}

	timeOff := &models.TimeOff{
		ID:             uuid.New().String(),
		PsychologistID: psychologistID,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
		Reason:         req.Reason,
		CreatedAt:      time.Now(),
	}
	if err := m.Engine.TimeOff.Create(ctx, timeOff); err != nil {
		return nil, fmt.Errorf("failed to save time off: %w", err)
	}

	utils.GetLogger().Info("time off added",
		zap.String("psychologistID", psychologistID),
		zap.Time("startAt", timeOff.StartAt),
		zap.Time("endAt", timeOff.EndAt))
	return timeOff, nil
}

func (m *Management) DeleteTimeOff(ctx context.Context, psychologistID, timeOffID string) error {
	timeOff, err := m.Engine.TimeOff.GetByID(ctx, timeOffID)
	if err != nil {
		return ErrTimeOffNotFound
	}
	if timeOff.PsychologistID != psychologistID {
		return ErrTimeOffNotFound
	}
	if err := m.Engine.TimeOff.Delete(ctx, timeOffID); err != nil {
		return fmt.Errorf("failed to delete time off: %w", err)
	}
	return nil
}

func (m *Management) ListTimeOff(ctx context.Context, psychologistID string) ([]models.TimeOff, error) {
	return m.Engine.TimeOff.ListByPsychologist(ctx, psychologistID)
}

func validateWindowRequest(req *models.AvailabilityRequest) error {
	if !validDays[req.DayOfWeek] {
		return invalidf("unknown day of week %q", req.DayOfWeek)
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return invalidf("invalid start time %q, expected HH:MM", req.StartTime)
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return invalidf("invalid end time %q, expected HH:MM", req.EndTime)
	}
	if !start.Before(end) {
		return invalidf("window start must be before end")
	}
	for _, date := range []string{req.EffectiveFrom, req.EffectiveUntil} {
		if date == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return invalidf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}
	return nil
}
