package psychologist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	bookingRepo "groundandgrow/database/repository/booking"
	"groundandgrow/models"
	"groundandgrow/services/message"
)

var ErrClientNotFound = errors.New("client not found")

// Clients derives the per-client view from booking history. Guests have no
// account, so every distinct booking email is one client; the newest booking
// supplies the contact details.
func (s *Service) Clients(ctx context.Context, id string) ([]models.ClientSummary, error) {
	bookings, err := s.Bookings.ListByPsychologist(ctx, id, bookingRepo.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	now := s.now()
	byEmail := make(map[string]*models.ClientSummary)
	for i := range bookings {
		b := &bookings[i]
		key := strings.ToLower(b.Email)

		summary, ok := byEmail[key]
		if !ok {
			summary = &models.ClientSummary{
				ID:        key,
				FirstName: b.FirstName,
				LastName:  b.LastName,
				Email:     b.Email,
				Phone:     b.Phone,
			}
			byEmail[key] = summary
		}

		summary.TotalAppointments++
		switch b.Status {
		case models.StatusCompleted:
			summary.CompletedAppointments++
		case models.StatusCancelled:
			summary.CancelledAppointments++
		}

		at := b.AppointmentAt
		if at.After(now) {
			if b.Status == models.StatusConfirmed &&
				(summary.NextAppointmentDate == nil || at.Before(*summary.NextAppointmentDate)) {
				next := at
				summary.NextAppointmentDate = &next
			}
		} else if summary.LastAppointmentDate == nil || at.After(*summary.LastAppointmentDate) {
			last := at
			summary.LastAppointmentDate = &last
		}
	}

	clients := make([]models.ClientSummary, 0, len(byEmail))
	for _, summary := range byEmail {
		if s.Messages != nil {
			if unread, err := s.Messages.UnreadCount(ctx, summary.ID); err == nil {
				summary.UnreadMessages = unread
			}
		}
		clients = append(clients, *summary)
	}

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].LastName < clients[j].LastName ||
			(clients[i].LastName == clients[j].LastName && clients[i].FirstName < clients[j].FirstName)
	})
	return clients, nil
}

// ClientAppointments lists one client's booking history with this
// psychologist, identified by email.
func (s *Service) ClientAppointments(ctx context.Context, id, clientEmail string) ([]models.Booking, error) {
	bookings, err := s.Bookings.ListByEmail(ctx, clientEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load client bookings: %w", err)
	}

	mine := bookings[:0]
	for _, b := range bookings {
		if b.PsychologistID == id {
			mine = append(mine, b)
		}
	}
	if len(mine) == 0 {
		return nil, ErrClientNotFound
	}
	return mine, nil
}

// ClientMessages returns the conversation between the psychologist and one
// client email.
func (s *Service) ClientMessages(ctx context.Context, id, clientEmail string) ([]models.Message, error) {
	if s.Messages == nil {
		return nil, nil
	}
	return s.Messages.Thread(ctx, message.ThreadID("", id, strings.ToLower(clientEmail)))
}
