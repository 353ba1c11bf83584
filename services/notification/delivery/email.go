package delivery

import (
	"context"
	"fmt"

	"groundandgrow/config"
	"groundandgrow/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender delivers a single message to one recipient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender builds an email sender from AppConfig.
func NewSendGridSender() EmailSender {
	return &sendGridSender{
		client:   sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey),
		from:     config.AppConfig.SendGridFrom,
		fromName: config.AppConfig.SendGridFromName,
	}
}

func (s *sendGridSender) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.from)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, body)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("email provider rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}

	utils.GetLogger().Debug("email sent",
		zap.String("to", to), zap.String("subject", subject), zap.Int("status", resp.StatusCode))
	return nil
}
