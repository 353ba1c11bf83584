package models

import "time"

// Psychologist is a practitioner who can be booked.
type Psychologist struct {
	ID              string    `bson:"id" json:"id"`
	Email           string    `bson:"email" json:"email"`
	FirstName       string    `bson:"firstName" json:"firstName"`
	LastName        string    `bson:"lastName" json:"lastName"`
	Title           string    `bson:"title,omitempty" json:"title,omitempty"`
	Bio             string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone           string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Specializations []string  `bson:"specializations,omitempty" json:"specializations,omitempty"`
	Active          bool      `bson:"active" json:"active"`
	PasswordHash    string    `bson:"passwordHash" json:"-"`
	TokenHash       string    `bson:"tokenHash,omitempty" json:"-"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FullName returns the display name used in notifications.
func (p *Psychologist) FullName() string {
	return p.FirstName + " " + p.LastName
}

// SessionType describes a bookable service offering.
type SessionType struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Price           float64   `bson:"price" json:"price"`
	Modalities      []string  `bson:"modalities,omitempty" json:"modalities,omitempty"`
	Active          bool      `bson:"active" json:"active"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}
