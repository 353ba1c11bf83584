package message

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	messageRepo "groundandgrow/database/repository/message"
	"groundandgrow/models"
	"groundandgrow/services/notification"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

var ErrMessageNotFound = errors.New("message not found")

// Service handles secure messaging between psychologists and clients.
// Clients are identified by booking email; there is no client account.
type Service struct {
	Messages      messageRepo.MessageRepository
	Notifications notification.NotificationService
}

// Send stores the message and queues a message-received notification for
// the recipient. The content stays in the portal; only the fact that a
// message arrived goes out.
func (s *Service) Send(ctx context.Context, senderID, senderType, senderName string, req *models.MessageRequest) (*models.Message, error) {
	msg := &models.Message{
		SenderID:      senderID,
		ReceiverID:    req.ReceiverID,
		SenderType:    senderType,
		ReceiverType:  req.ReceiverType,
		Subject:       req.Subject,
		Content:       req.Content,
		AppointmentID: req.AppointmentID,
		ThreadID:      ThreadID(req.AppointmentID, senderID, req.ReceiverID),
	}
	if err := s.Messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// Guest recipients are addressed by email, so the recipient id doubles
	// as the delivery address.
	recipientEmail := ""
	if req.ReceiverType == "guest" {
		recipientEmail = req.ReceiverID
	}
	if err := s.Notifications.NotifyMessageReceived(ctx, req.ReceiverID, req.ReceiverType, recipientEmail, senderName); err != nil {
		utils.GetLogger().Error("failed to queue message notification",
			zap.String("messageID", msg.ID), zap.Error(err))
	}

	utils.GetLogger().Info("message sent",
		zap.String("messageID", msg.ID), zap.String("threadID", msg.ThreadID))
	return msg, nil
}

// Thread returns a conversation oldest-first.
func (s *Service) Thread(ctx context.Context, threadID string) ([]models.Message, error) {
	return s.Messages.ListByThread(ctx, threadID)
}

// ForAppointment returns messages attached to one appointment.
func (s *Service) ForAppointment(ctx context.Context, appointmentID string) ([]models.Message, error) {
	return s.Messages.ListByAppointment(ctx, appointmentID)
}

// Inbox returns every non-deleted message a user sent or received.
func (s *Service) Inbox(ctx context.Context, userID string) ([]models.Message, error) {
	return s.Messages.ListByUser(ctx, userID)
}

// Unread returns the unread messages waiting for a recipient.
func (s *Service) Unread(ctx context.Context, receiverID string) ([]models.Message, error) {
	return s.Messages.ListUnread(ctx, receiverID)
}

// UnreadCount is a convenience for dashboard counters.
func (s *Service) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	unread, err := s.Messages.ListUnread(ctx, receiverID)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// MarkAsRead marks a message read. Only the receiver can do this.
func (s *Service) MarkAsRead(ctx context.Context, receiverID, messageID string) (*models.Message, error) {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	if msg.ReceiverID != receiverID {
		return nil, ErrMessageNotFound
	}
	if msg.IsRead {
		return msg, nil
	}

	now := time.Now()
	msg.IsRead = true
	msg.ReadAt = &now
	if err := s.Messages.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	return msg, nil
}

// Delete soft-deletes a message for its sender or receiver. The document
// stays in the collection; reads filter it out.
func (s *Service) Delete(ctx context.Context, userID, messageID string) error {
	msg, err := s.Messages.GetByID(ctx, messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != userID && msg.ReceiverID != userID {
		return ErrMessageNotFound
	}

	now := time.Now()
	msg.Deleted = true
	msg.DeletedAt = &now
	if err := s.Messages.Update(ctx, msg); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// ThreadID derives a stable conversation key. Appointment-scoped threads
// hang off the appointment id; otherwise the two participant ids are sorted
// so either side derives the same key.
func ThreadID(appointmentID, a, b string) string {
	participants := []string{a, b}
	sort.Strings(participants)
	pair := strings.Join(participants, "_")
	if appointmentID != "" {
		return appointmentID + "_" + pair
	}
	return "thread_" + pair
}
