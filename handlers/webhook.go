package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"groundandgrow/services/booking"
	"groundandgrow/services/payment"
	"groundandgrow/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

const webhookBodyLimit = 65536

// WebhookHandler ingests payment provider events. Everything except a bad
// signature is acknowledged with 200 so the provider stops retrying;
// processing failures are logged, not surfaced.
type WebhookHandler struct {
	Gateway  payment.Gateway
	Bookings *booking.Service
}

func NewWebhookHandler(gateway payment.Gateway, bookings *booking.Service) *WebhookHandler {
	return &WebhookHandler{Gateway: gateway, Bookings: bookings}
}

// HandleStripeEvent verifies the signature against the raw body and
// dispatches the event.
func (h *WebhookHandler) HandleStripeEvent(c *gin.Context) {
	logger := utils.GetLogger()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unreadable payload", err.Error())
		return
	}

	event, err := h.Gateway.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid signature", err.Error())
		return
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(c, event)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		h.handleCheckoutFailed(c, event)
	default:
		logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) handleCheckoutCompleted(c *gin.Context, event stripe.Event) {
	logger := utils.GetLogger()

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		logger.Error("malformed checkout.session.completed payload", zap.Error(err))
		return
	}

	paymentIntentID := ""
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}

	err := h.Bookings.HandlePaymentSuccess(c.Request.Context(), sess.ID, paymentIntentID)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrBookingNotFound):
		// Unknown sessions are acked; the provider may replay events for
		// bookings this environment never created.
		logger.Warn("payment success for unknown checkout session",
			zap.String("sessionID", sess.ID))
	default:
		logger.Error("failed to process payment success",
			zap.String("sessionID", sess.ID), zap.Error(err))
	}
}

func (h *WebhookHandler) handleCheckoutFailed(c *gin.Context, event stripe.Event) {
	logger := utils.GetLogger()

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		logger.Error("malformed checkout session payload", zap.Error(err))
		return
	}

	err := h.Bookings.HandlePaymentFailure(c.Request.Context(), sess.ID)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrBookingNotFound):
		logger.Warn("payment failure for unknown checkout session",
			zap.String("sessionID", sess.ID))
	default:
		logger.Error("failed to process payment failure",
			zap.String("sessionID", sess.ID), zap.Error(err))
	}
}
