package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"groundandgrow/config"
	"groundandgrow/utils"

	"go.uber.org/zap"
)

// SMSSender delivers a single text message to one phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type twilioSender struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	from       string
}

// NewTwilioSender builds an SMS sender against the Twilio Messages REST API.
func NewTwilioSender() SMSSender {
	return &twilioSender{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		accountSID: config.AppConfig.TwilioAccountSID,
		authToken:  config.AppConfig.TwilioAuthToken,
		from:       config.AppConfig.TwilioFromNumber,
	}
}

func (s *twilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms provider rejected message: status %d: %s", resp.StatusCode, payload)
	}

	utils.GetLogger().Debug("sms sent", zap.String("to", to), zap.Int("status", resp.StatusCode))
	return nil
}
