package handlers

import (
	"errors"
	"net/http"
	"strings"

	"groundandgrow/middleware"
	"groundandgrow/models"
	"groundandgrow/services/booking"
	"groundandgrow/services/message"
	"groundandgrow/services/psychologist"
	"groundandgrow/utils"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves secure messaging for both sides: psychologists
// authenticate with a bearer token, guests with their booking access token.
type MessageHandler struct {
	Service       *message.Service
	Bookings      *booking.Service
	Psychologists *psychologist.Service
}

func NewMessageHandler(service *message.Service, bookings *booking.Service, psychs *psychologist.Service) *MessageHandler {
	return &MessageHandler{Service: service, Bookings: bookings, Psychologists: psychs}
}

// Send sends a message as the authenticated psychologist.
func (h *MessageHandler) Send(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid message", err.Error())
		return
	}

	senderID := c.GetString(middleware.ContextPsychologistID)
	senderName := "Your psychologist"
	if psych, err := h.Psychologists.Profile(c.Request.Context(), senderID); err == nil {
		senderName = psych.FullName()
	}

	msg, err := h.Service.Send(c.Request.Context(), senderID, "psychologist", senderName, &req)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to send message", err.Error())
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Inbox lists the psychologist's messages.
func (h *MessageHandler) Inbox(c *gin.Context) {
	messages, err := h.Service.Inbox(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list messages", err.Error())
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Unread lists the psychologist's unread messages.
func (h *MessageHandler) Unread(c *gin.Context) {
	messages, err := h.Service.Unread(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list unread messages", err.Error())
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MarkRead marks a received message as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	msg, err := h.Service.MarkAsRead(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("messageId"))
	if err != nil {
		writeMessageError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Delete soft-deletes a message.
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("messageId")); err != nil {
		writeMessageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GuestSend sends a message from the guest who owns the booking token to
// the booked psychologist.
func (h *MessageHandler) GuestSend(c *gin.Context) {
	b, err := h.Bookings.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	var body struct {
		Subject string `json:"subject"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid message", err.Error())
		return
	}

	req := models.MessageRequest{
		ReceiverID:    b.PsychologistID,
		ReceiverType:  "psychologist",
		Subject:       body.Subject,
		Content:       body.Content,
		AppointmentID: b.ID,
	}
	msg, err := h.Service.Send(c.Request.Context(), strings.ToLower(b.Email), "guest", b.FirstName+" "+b.LastName, &req)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to send message", err.Error())
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GuestThread lists the conversation attached to the guest's booking.
func (h *MessageHandler) GuestThread(c *gin.Context) {
	b, err := h.Bookings.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeBookingError(c, err)
		return
	}

	messages, err := h.Service.ForAppointment(c.Request.Context(), b.ID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load messages", err.Error())
		return
	}
	c.JSON(http.StatusOK, messages)
}

func writeMessageError(c *gin.Context, err error) {
	if errors.Is(err, message.ErrMessageNotFound) {
		utils.JSONError(c, http.StatusNotFound, "Message not found", err.Error())
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
}
