package availability

import (
	"context"
	"fmt"
	"time"

	availabilityRepo "groundandgrow/database/repository/availability"
	timeoffRepo "groundandgrow/database/repository/timeoff"
	"groundandgrow/models"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

// BookingQuery is the slice of the booking repository the engine needs.
type BookingQuery interface {
	ListOccupyingBetween(ctx context.Context, psychologistID string, from, to time.Time) ([]models.Booking, error)
}

// Engine computes bookable slots for a psychologist by composing the
// recurring calendar with time-off periods and occupying bookings.
// All times are server-local wall-clock; no timezone conversion happens
// anywhere in here.
type Engine struct {
	Windows  availabilityRepo.AvailabilityRepository
	TimeOff  timeoffRepo.TimeOffRepository
	Bookings BookingQuery
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ComputeFreeSlots returns the ordered candidate start times for the given
// date and duration. Slots from overlapping windows are concatenated, not
// merged; providers may deliberately configure overlapping shifts.
func (e *Engine) ComputeFreeSlots(ctx context.Context, psychologistID string, date time.Time, durationMinutes int) ([]time.Time, error) {
	logger := utils.GetLogger()
	day := startOfDay(date)

	windows, err := e.Windows.ListByPsychologistAndDay(ctx, psychologistID, WeekdayName(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability windows: %w", err)
	}
	if len(windows) == 0 {
		return nil, nil
	}

	offDay, err := e.isDayOff(ctx, psychologistID, day)
	if err != nil {
		return nil, err
	}
	if offDay {
		logger.Debug("date falls within a time-off period",
			zap.String("psychologistID", psychologistID), zap.Time("date", day))
		return nil, nil
	}

	bookings, err := e.Bookings.ListOccupyingBetween(ctx, psychologistID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}

	now := e.now()
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []time.Time
	for _, window := range windows {
		if !windowEffective(&window, day) {
			continue
		}
		winStart, winEnd, err := windowBounds(&window, day)
		if err != nil {
			logger.Warn("skipping malformed availability window",
				zap.String("windowID", window.ID), zap.Error(err))
			continue
		}

		// Step through the window; a trailing partial period shorter than
		// the duration is unbookable.
		for step := winStart; !step.Add(duration).After(winEnd); step = step.Add(duration) {
			if !step.After(now) {
				continue
			}
			if conflicts(step, step.Add(duration), bookings) {
				continue
			}
			slots = append(slots, step)
		}
	}

	return slots, nil
}

// SlotsForDate wraps ComputeFreeSlots in the public availability view.
func (e *Engine) SlotsForDate(ctx context.Context, psychologistID string, date time.Time, durationMinutes int) (*models.DayAvailability, error) {
	starts, err := e.ComputeFreeSlots(ctx, psychologistID, date, durationMinutes)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	slots := make([]models.Slot, 0, len(starts))
	for _, start := range starts {
		slots = append(slots, models.Slot{
			StartTime:       start,
			EndTime:         start.Add(duration),
			DurationMinutes: durationMinutes,
			Available:       true,
		})
	}

	return &models.DayAvailability{
		PsychologistID:  psychologistID,
		Date:            date.Format("2006-01-02"),
		DurationMinutes: durationMinutes,
		AvailableSlots:  slots,
		TotalSlots:      len(slots),
	}, nil
}

// IsSlotFree re-derives the weekday, time-off, window-containment, and
// overlap checks against the single requested interval. Reservation uses
// this rather than ComputeFreeSlots so the check and the write stay close
// together; the repository transaction closes the remaining race.
func (e *Engine) IsSlotFree(ctx context.Context, psychologistID string, start time.Time, durationMinutes int) (bool, error) {
	day := startOfDay(start)

	windows, err := e.Windows.ListByPsychologistAndDay(ctx, psychologistID, WeekdayName(day.Weekday()))
	if err != nil {
		return false, fmt.Errorf("failed to fetch availability windows: %w", err)
	}
	if len(windows) == 0 {
		return false, nil
	}

	offDay, err := e.isDayOff(ctx, psychologistID, day)
	if err != nil {
		return false, err
	}
	if offDay {
		return false, nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	end := start.Add(duration)

	contained := false
	for _, window := range windows {
		if !windowEffective(&window, day) {
			continue
		}
		winStart, winEnd, err := windowBounds(&window, day)
		if err != nil {
			continue
		}
		// Containment is boundary-inclusive on both ends.
		if !start.Before(winStart) && !end.After(winEnd) {
			contained = true
			break
		}
	}
	if !contained {
		return false, nil
	}

	bookings, err := e.Bookings.ListOccupyingBetween(ctx, psychologistID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return false, fmt.Errorf("failed to fetch bookings: %w", err)
	}

	return !conflicts(start, end, bookings), nil
}

func (e *Engine) isDayOff(ctx context.Context, psychologistID string, day time.Time) (bool, error) {
	periods, err := e.TimeOff.ListByPsychologist(ctx, psychologistID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch time off: %w", err)
	}
	for _, period := range periods {
		// Inclusive calendar-day semantics: a period touching any part of
		// the date removes the whole date.
		from := startOfDay(period.StartAt)
		until := startOfDay(period.EndAt)
		if !day.Before(from) && !day.After(until) {
			return true, nil
		}
	}
	return false, nil
}

// conflicts reports whether [start, end) intersects any booking interval.
// Intervals are half-open, so back-to-back bookings do not conflict.
func conflicts(start, end time.Time, bookings []models.Booking) bool {
	for i := range bookings {
		b := &bookings[i]
		if start.Before(b.End()) && end.After(b.AppointmentAt) {
			return true
		}
	}
	return false
}

func windowEffective(window *models.Availability, day time.Time) bool {
	if window.EffectiveFrom != "" {
		from, err := time.ParseInLocation("2006-01-02", window.EffectiveFrom, day.Location())
		if err == nil && day.Before(from) {
			return false
		}
	}
	if window.EffectiveUntil != "" {
		until, err := time.ParseInLocation("2006-01-02", window.EffectiveUntil, day.Location())
		if err == nil && day.After(until) {
			return false
		}
	}
	return true
}

// windowBounds resolves the window's wall-clock times onto the given day.
func windowBounds(window *models.Availability, day time.Time) (time.Time, time.Time, error) {
	start, err := atClock(day, window.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := atClock(day, window.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("window start %q not before end %q", window.StartTime, window.EndTime)
	}
	return start, end, nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid wall-clock time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "MONDAY",
	time.Tuesday:   "TUESDAY",
	time.Wednesday: "WEDNESDAY",
	time.Thursday:  "THURSDAY",
	time.Friday:    "FRIDAY",
	time.Saturday:  "SATURDAY",
	time.Sunday:    "SUNDAY",
}

// WeekdayName maps a time.Weekday to the stored day-of-week value.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

var validDays = func() map[string]bool {
	m := make(map[string]bool, len(weekdayNames))
	for _, name := range weekdayNames {
		m[name] = true
	}
	return m
}()
