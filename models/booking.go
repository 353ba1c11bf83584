package models

import "time"

// Booking statuses. A booking occupies its slot while in
// StatusPendingPayment or StatusConfirmed.
const (
	StatusPendingPayment = "pending_payment"
	StatusConfirmed      = "confirmed"
	StatusCancelled      = "cancelled"
	StatusCompleted      = "completed"
	StatusNoShow         = "no_show"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Booking represents a guest booking made without an account. The access
// token is the only credential the guest holds over it.
type Booking struct {
	ID                string    `bson:"id" json:"id"`
	AccessToken       string    `bson:"accessToken" json:"accessToken,omitempty"` // Opaque token for guest management
	FirstName         string    `bson:"firstName" json:"firstName"`
	LastName          string    `bson:"lastName" json:"lastName"`
	Email             string    `bson:"email" json:"email"`
	Phone             string    `bson:"phone" json:"phone"`
	PsychologistID    string    `bson:"psychologistId" json:"psychologistId"`
	SessionTypeID     string    `bson:"sessionTypeId" json:"sessionTypeId"`
	AppointmentAt     time.Time `bson:"appointmentAt" json:"appointmentAt"`
	DurationMinutes   int       `bson:"durationMinutes" json:"durationMinutes"`
	Modality          string    `bson:"modality" json:"modality"` // "in_person" or "telehealth"
	Amount            float64   `bson:"amount" json:"amount"`
	PaymentStatus     string    `bson:"paymentStatus" json:"paymentStatus"`
	Status            string    `bson:"status" json:"status"`
	CheckoutSessionID string    `bson:"checkoutSessionId,omitempty" json:"-"`
	PaymentIntentID   string    `bson:"paymentIntentId,omitempty" json:"-"`
	CancellationReason string   `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	PsychologistNotes string    `bson:"psychologistNotes,omitempty" json:"psychologistNotes,omitempty"`
	Notes             string    `bson:"notes,omitempty" json:"notes,omitempty"` // Client-supplied notes at booking time
	ReminderSent      bool      `bson:"reminderSent" json:"reminderSent"`
	MeetingLink       string    `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
	RoomNumber        string    `bson:"roomNumber,omitempty" json:"roomNumber,omitempty"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Occupying reports whether the booking currently counts against slot
// availability.
func (b *Booking) Occupying() bool {
	return b.Status == StatusPendingPayment || b.Status == StatusConfirmed
}

// End returns the end of the booked interval. Intervals are half-open:
// [AppointmentAt, End).
func (b *Booking) End() time.Time {
	return b.AppointmentAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}
