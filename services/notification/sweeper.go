package notification

import (
	"context"
	"strings"
	"time"

	notificationRepo "groundandgrow/database/repository/notification"
	"groundandgrow/models"
	"groundandgrow/services/notification/delivery"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

// Sweeper periodically drains due notification intents and attempts
// delivery. A nil sender means that channel is disabled; attempts on a
// disabled channel succeed without doing anything, so a misconfigured
// deployment degrades quietly instead of burning retries.
type Sweeper struct {
	Repo         notificationRepo.NotificationRepository
	Email        delivery.EmailSender
	SMS          delivery.SMSSender
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Now          func() time.Time
}

func NewSweeper(repo notificationRepo.NotificationRepository, email delivery.EmailSender, sms delivery.SMSSender, interval time.Duration, maxRetries int, backoff time.Duration) *Sweeper {
	return &Sweeper{
		Repo:         repo,
		Email:        email,
		SMS:          sms,
		Interval:     interval,
		MaxRetries:   maxRetries,
		RetryBackoff: backoff,
	}
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run sweeps on the configured interval until the context is cancelled.
// Intended to be launched as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	logger := utils.GetLogger()
	logger.Info("notification sweeper started", zap.Duration("interval", s.Interval))

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification sweeper stopped")
			return
		case <-ticker.C:
			if err := s.ProcessDue(ctx); err != nil {
				logger.Error("notification sweep failed", zap.Error(err))
			}
		}
	}
}

// ProcessDue performs one sweep pass: every pending intent whose scheduled
// time has passed gets a delivery attempt. One bad intent never blocks the
// rest of the batch.
func (s *Sweeper) ProcessDue(ctx context.Context) error {
	logger := utils.GetLogger()
	now := s.now()

	due, err := s.Repo.ListDue(ctx, now)
	if err != nil {
		return err
	}
	// A pass with nothing due still counts for liveness.
	utils.ReportSweep()
	if len(due) == 0 {
		return nil
	}
	logger.Debug("processing due notifications", zap.Int("count", len(due)))

	for i := range due {
		s.attempt(ctx, &due[i])
	}
	return nil
}

func (s *Sweeper) attempt(ctx context.Context, n *models.Notification) {
	logger := utils.GetLogger()

	err := s.deliver(ctx, n)
	now := s.now()
	n.UpdatedAt = now

	if err == nil {
		n.Status = models.NotificationSent
		n.SentAt = &now
		n.LastError = ""
		if updateErr := s.Repo.Update(ctx, n); updateErr != nil {
			logger.Error("failed to mark notification sent",
				zap.String("notificationID", n.ID), zap.Error(updateErr))
		}
		logger.Info("notification delivered",
			zap.String("notificationID", n.ID), zap.String("type", n.Type))
		return
	}

	n.RetryCount++
	n.LastError = err.Error()
	if n.RetryCount < s.MaxRetries {
		// Stay pending; push the schedule forward so the next pass does
		// not immediately re-attempt.
		n.ScheduledFor = now.Add(s.RetryBackoff)
		logger.Warn("notification delivery failed, will retry",
			zap.String("notificationID", n.ID),
			zap.Int("retryCount", n.RetryCount),
			zap.Error(err))
	} else {
		n.Status = models.NotificationFailed
		logger.Error("notification delivery failed permanently",
			zap.String("notificationID", n.ID),
			zap.Int("retryCount", n.RetryCount),
			zap.Error(err))
	}
	if updateErr := s.Repo.Update(ctx, n); updateErr != nil {
		logger.Error("failed to record notification failure",
			zap.String("notificationID", n.ID), zap.Error(updateErr))
	}
}

// deliver fans out to the channels the intent selects. Channels attempt
// independently; any channel error fails the attempt as a whole.
func (s *Sweeper) deliver(ctx context.Context, n *models.Notification) error {
	var errs []string

	if n.DeliveryMethod == models.DeliverEmail || n.DeliveryMethod == models.DeliverBoth {
		if err := s.sendEmail(ctx, n); err != nil {
			errs = append(errs, "email: "+err.Error())
		}
	}
	if n.DeliveryMethod == models.DeliverSMS || n.DeliveryMethod == models.DeliverBoth {
		if err := s.sendSMS(ctx, n); err != nil {
			errs = append(errs, "sms: "+err.Error())
		}
	}

	if len(errs) > 0 {
		return &deliveryError{channels: errs}
	}
	return nil
}

func (s *Sweeper) sendEmail(ctx context.Context, n *models.Notification) error {
	if s.Email == nil {
		utils.GetLogger().Debug("email channel disabled, skipping",
			zap.String("notificationID", n.ID))
		return nil
	}
	return s.Email.Send(ctx, n.RecipientEmail, n.Subject, n.Message)
}

func (s *Sweeper) sendSMS(ctx context.Context, n *models.Notification) error {
	if s.SMS == nil {
		utils.GetLogger().Debug("sms channel disabled, skipping",
			zap.String("notificationID", n.ID))
		return nil
	}
	return s.SMS.Send(ctx, n.RecipientPhone, n.Message)
}

type deliveryError struct {
	channels []string
}

func (e *deliveryError) Error() string {
	return "delivery failed: " + strings.Join(e.channels, "; ")
}
