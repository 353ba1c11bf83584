package models

import "time"

// Notification statuses. Intents are never deleted; cancelled intents are
// marked, not removed.
const (
	NotificationPending   = "pending"
	NotificationSent      = "sent"
	NotificationFailed    = "failed"
	NotificationCancelled = "cancelled"
)

// Notification types.
const (
	TypeBookingConfirmation = "booking_confirmation"
	TypeReminder            = "reminder"
	TypeCancellation        = "cancellation"
	TypeMessageReceived     = "message_received"
)

// Delivery methods.
const (
	DeliverEmail = "email"
	DeliverSMS   = "sms"
	DeliverBoth  = "both"
)

// Notification is a queued, time-scheduled delivery intent with retry state.
type Notification struct {
	ID             string         `bson:"id" json:"id"`
	RecipientID    string         `bson:"recipientId" json:"recipientId"`
	RecipientType  string         `bson:"recipientType" json:"recipientType"` // "guest" or "psychologist"
	RecipientEmail string         `bson:"recipientEmail,omitempty" json:"recipientEmail,omitempty"`
	RecipientPhone string         `bson:"recipientPhone,omitempty" json:"recipientPhone,omitempty"`
	Type           string         `bson:"type" json:"type"`
	DeliveryMethod string         `bson:"deliveryMethod" json:"deliveryMethod"`
	Subject        string         `bson:"subject" json:"subject"`
	Message        string         `bson:"message" json:"message"`
	TemplateID     string         `bson:"templateId,omitempty" json:"templateId,omitempty"`
	TemplateData   map[string]any `bson:"templateData,omitempty" json:"templateData,omitempty"`
	ScheduledFor   time.Time      `bson:"scheduledFor" json:"scheduledFor"`
	Status         string         `bson:"status" json:"status"`
	RetryCount     int            `bson:"retryCount" json:"retryCount"`
	LastError      string         `bson:"lastError,omitempty" json:"lastError,omitempty"`
	SentAt         *time.Time     `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
	BookingID      string         `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
}
