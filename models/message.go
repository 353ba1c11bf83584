package models

import "time"

// Message is a secure message between a psychologist and a client,
// threaded per appointment or per user pair.
type Message struct {
	ID            string     `bson:"id" json:"id"`
	SenderID      string     `bson:"senderId" json:"senderId"`
	ReceiverID    string     `bson:"receiverId" json:"receiverId"`
	SenderType    string     `bson:"senderType" json:"senderType"` // "guest" or "psychologist"
	ReceiverType  string     `bson:"receiverType" json:"receiverType"`
	Subject       string     `bson:"subject,omitempty" json:"subject,omitempty"`
	Content       string     `bson:"content" json:"content"`
	AppointmentID string     `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
	ThreadID      string     `bson:"threadId" json:"threadId"`
	IsRead        bool       `bson:"isRead" json:"isRead"`
	ReadAt        *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
	Deleted       bool       `bson:"deleted" json:"-"`
	DeletedAt     *time.Time `bson:"deletedAt,omitempty" json:"-"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
}
