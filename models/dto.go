package models

import "time"

// BookingRequest is the guest-facing payload for creating a booking.
type BookingRequest struct {
	FirstName      string    `json:"firstName" binding:"required"`
	LastName       string    `json:"lastName" binding:"required"`
	Email          string    `json:"email" binding:"required,email"`
	Phone          string    `json:"phone" binding:"required"`
	PsychologistID string    `json:"psychologistId" binding:"required"`
	SessionTypeID  string    `json:"sessionTypeId" binding:"required"`
	AppointmentAt  time.Time `json:"appointmentAt" binding:"required"`
	Modality       string    `json:"modality" binding:"required"`
	Notes          string    `json:"notes"`
}

// CheckoutSessionResponse is returned after a booking is created and a
// payment session opened.
type CheckoutSessionResponse struct {
	BookingID         string `json:"bookingId"`
	CheckoutSessionID string `json:"checkoutSessionId"`
	CheckoutURL       string `json:"checkoutUrl"`
	AccessToken       string `json:"accessToken"`
}

// CancellationResponse reports the outcome of a cancellation, including
// whether the refund (if any) went through.
type CancellationResponse struct {
	BookingID       string  `json:"bookingId"`
	Cancelled       bool    `json:"cancelled"`
	RefundEligible  bool    `json:"refundEligible"`
	RefundProcessed bool    `json:"refundProcessed"`
	RefundAmount    float64 `json:"refundAmount"`
	RefundError     string  `json:"refundError,omitempty"`
}

// RescheduleRequest carries the new appointment time for a reschedule.
type RescheduleRequest struct {
	NewAppointmentAt time.Time `json:"newAppointmentAt" binding:"required"`
}

// AvailabilityRequest is the psychologist-facing payload for configuring
// a recurring window.
type AvailabilityRequest struct {
	DayOfWeek      string `json:"dayOfWeek" binding:"required"`
	StartTime      string `json:"startTime" binding:"required"`
	EndTime        string `json:"endTime" binding:"required"`
	IsRecurring    *bool  `json:"isRecurring"`
	EffectiveFrom  string `json:"effectiveFrom"`
	EffectiveUntil string `json:"effectiveUntil"`
}

// TimeOffRequest adds a time-off period.
type TimeOffRequest struct {
	StartAt time.Time `json:"startAt" binding:"required"`
	EndAt   time.Time `json:"endAt" binding:"required"`
	Reason  string    `json:"reason"`
}

// UpdateStatusRequest is the psychologist-side status write.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// NotesRequest attaches psychologist notes to an appointment.
type NotesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// MessageRequest sends a secure message.
type MessageRequest struct {
	ReceiverID    string `json:"receiverId" binding:"required"`
	ReceiverType  string `json:"receiverType" binding:"required"`
	Subject       string `json:"subject"`
	Content       string `json:"content" binding:"required"`
	AppointmentID string `json:"appointmentId"`
}

// ClientSummary is the derived per-client view a psychologist sees.
// Guests have no account; the client identity is the booking email.
type ClientSummary struct {
	ID                    string     `json:"id"` // Email doubles as the client identifier
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	TotalAppointments     int        `json:"totalAppointments"`
	CompletedAppointments int        `json:"completedAppointments"`
	CancelledAppointments int        `json:"cancelledAppointments"`
	LastAppointmentDate   *time.Time `json:"lastAppointmentDate,omitempty"`
	NextAppointmentDate   *time.Time `json:"nextAppointmentDate,omitempty"`
	UnreadMessages        int        `json:"unreadMessages"`
}

// DashboardStats aggregates booking counters for the psychologist dashboard.
type DashboardStats struct {
	TotalSessions      int `json:"totalSessions"`
	UpcomingBookings   int `json:"upcomingBookings"`
	CompletedThisWeek  int `json:"completedThisWeek"`
	CompletedThisMonth int `json:"completedThisMonth"`
	CancelledThisMonth int `json:"cancelledThisMonth"`
	NoShowsThisMonth   int `json:"noShowsThisMonth"`
	UnreadMessages     int `json:"unreadMessages"`
}

// Dashboard is the psychologist landing view.
type Dashboard struct {
	Psychologist      *Psychologist  `json:"psychologist"`
	TodayAppointments []Booking      `json:"todayAppointments"`
	UpcomingBookings  []Booking      `json:"upcomingBookings"`
	Stats             DashboardStats `json:"stats"`
}
