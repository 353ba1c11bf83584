package handlers

import (
	"errors"
	"net/http"

	"groundandgrow/models"
	"groundandgrow/services/booking"
	"groundandgrow/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the guest booking surface. Guests hold no account;
// every management endpoint is keyed by the booking access token.
type BookingHandler struct {
	Service *booking.Service
}

func NewBookingHandler(service *booking.Service) *BookingHandler {
	return &BookingHandler{Service: service}
}

// CreateBooking reserves a slot and returns the checkout session the guest
// must complete to confirm it.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid booking request", err.Error())
		return
	}

	resp, err := h.Service.Create(c.Request.Context(), &req)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetBooking returns the booking behind an access token.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sanitizeForGuest(b))
}

// ListByEmail returns all bookings placed under an email address.
func (h *BookingHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing email", "query parameter 'email' is required")
		return
	}

	bookings, err := h.Service.ListByEmail(c.Request.Context(), email)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list bookings", err.Error())
		return
	}
	for i := range bookings {
		bookings[i] = *sanitizeForGuest(&bookings[i])
	}
	c.JSON(http.StatusOK, bookings)
}

// CancelBooking cancels via access token and reports refund outcome.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	resp, err := h.Service.Cancel(c.Request.Context(), c.Param("token"), body.Reason)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RescheduleBooking moves a confirmed booking to a new slot.
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	var req models.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid reschedule request", err.Error())
		return
	}

	b, err := h.Service.Reschedule(c.Request.Context(), c.Param("token"), req.NewAppointmentAt)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, sanitizeForGuest(b))
}

// sanitizeForGuest strips fields guests must not see.
func sanitizeForGuest(b *models.Booking) *models.Booking {
	out := *b
	out.PsychologistNotes = ""
	return &out
}

func writeBookingError(c *gin.Context, err error) {
	var transition *booking.InvalidTransitionError
	var policy *booking.PolicyViolationError
	var gateway *booking.GatewayError

	switch {
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrPsychologistNotFound),
		errors.Is(err, booking.ErrSessionTypeNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		utils.JSONError(c, http.StatusConflict, "Slot unavailable", err.Error())
	case errors.As(err, &transition):
		utils.JSONError(c, http.StatusConflict, "Invalid booking state", err.Error())
	case errors.As(err, &policy):
		utils.JSONError(c, http.StatusUnprocessableEntity, "Request not allowed", err.Error())
	case errors.As(err, &gateway):
		utils.JSONError(c, http.StatusBadGateway, "Payment provider error", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
	}
}
