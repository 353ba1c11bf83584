package psychologist

import (
	"context"
	"fmt"
	"time"

	bookingRepo "groundandgrow/database/repository/booking"
	"groundandgrow/models"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

// Dashboard assembles the landing view: today's schedule, the next upcoming
// bookings, and the aggregate counters.
func (s *Service) Dashboard(ctx context.Context, id string) (*models.Dashboard, error) {
	psych, err := s.Psychologists.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	now := s.now()
	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	today, err := s.Bookings.ListByPsychologist(ctx, id, bookingRepo.ListFilter{
		From:   &dayStart,
		To:     &dayEnd,
		Status: models.StatusConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load today's appointments: %w", err)
	}

	horizon := now.AddDate(0, 0, 14)
	upcoming, err := s.Bookings.ListByPsychologist(ctx, id, bookingRepo.ListFilter{
		From:   &now,
		To:     &horizon,
		Status: models.StatusConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming bookings: %w", err)
	}

	stats, err := s.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.Dashboard{
		Psychologist:      psych,
		TodayAppointments: today,
		UpcomingBookings:  upcoming,
		Stats:             *stats,
	}, nil
}

// Stats derives the dashboard counters from the full booking history.
func (s *Service) Stats(ctx context.Context, id string) (*models.DashboardStats, error) {
	all, err := s.Bookings.ListByPsychologist(ctx, id, bookingRepo.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	now := s.now()
	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &models.DashboardStats{}
	for i := range all {
		b := &all[i]
		switch b.Status {
		case models.StatusCompleted:
			stats.TotalSessions++
			if !b.AppointmentAt.Before(weekStart) {
				stats.CompletedThisWeek++
			}
			if !b.AppointmentAt.Before(monthStart) {
				stats.CompletedThisMonth++
			}
		case models.StatusConfirmed:
			if b.AppointmentAt.After(now) {
				stats.UpcomingBookings++
			}
		case models.StatusCancelled:
			if !b.AppointmentAt.Before(monthStart) {
				stats.CancelledThisMonth++
			}
		case models.StatusNoShow:
			if !b.AppointmentAt.Before(monthStart) {
				stats.NoShowsThisMonth++
			}
		}
	}

	if s.Messages != nil {
		unread, err := s.Messages.UnreadCount(ctx, id)
		if err != nil {
			utils.GetLogger().Warn("failed to count unread messages",
				zap.String("psychologistID", id), zap.Error(err))
		} else {
			stats.UnreadMessages = unread
		}
	}
	return stats, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek treats Monday as the first day of the week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
