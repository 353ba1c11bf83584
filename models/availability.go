package models

import "time"

// Availability is a recurring weekly window during which a psychologist
// can be booked. Start and end are wall-clock times ("15:04"); no timezone
// conversion is performed anywhere in the engine.
type Availability struct {
	ID             string    `bson:"id" json:"id"`
	PsychologistID string    `bson:"psychologistId" json:"psychologistId"`
	DayOfWeek      string    `bson:"dayOfWeek" json:"dayOfWeek"` // "MONDAY".."SUNDAY"
	StartTime      string    `bson:"startTime" json:"startTime"` // "09:00"
	EndTime        string    `bson:"endTime" json:"endTime"`     // "17:00"
	IsRecurring    bool      `bson:"isRecurring" json:"isRecurring"`
	EffectiveFrom  string    `bson:"effectiveFrom,omitempty" json:"effectiveFrom,omitempty"`   // "2006-01-02", optional
	EffectiveUntil string    `bson:"effectiveUntil,omitempty" json:"effectiveUntil,omitempty"` // "2006-01-02", optional
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TimeOff removes all availability for every calendar date the period
// touches, inclusive on both ends.
type TimeOff struct {
	ID             string    `bson:"id" json:"id"`
	PsychologistID string    `bson:"psychologistId" json:"psychologistId"`
	StartAt        time.Time `bson:"startAt" json:"startAt"`
	EndAt          time.Time `bson:"endAt" json:"endAt"`
	Reason         string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// Slot is a candidate bookable interval derived from an availability window.
type Slot struct {
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Available       bool      `json:"available"`
}

// DayAvailability is the public availability result for one date.
type DayAvailability struct {
	PsychologistID  string `json:"psychologistId"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"durationMinutes"`
	AvailableSlots  []Slot `json:"availableSlots"`
	TotalSlots      int    `json:"totalSlots"`
}
