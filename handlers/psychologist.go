package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	bookingRepo "groundandgrow/database/repository/booking"
	"groundandgrow/middleware"
	"groundandgrow/models"
	"groundandgrow/services/booking"
	"groundandgrow/services/notification"
	"groundandgrow/services/psychologist"
	"groundandgrow/utils"

	"github.com/gin-gonic/gin"
)

// PsychologistHandler serves the authenticated practitioner portal plus the
// public directory.
type PsychologistHandler struct {
	Service       *psychologist.Service
	Bookings      *booking.Service
	Notifications notification.NotificationService
}

func NewPsychologistHandler(service *psychologist.Service, bookings *booking.Service, notifications notification.NotificationService) *PsychologistHandler {
	return &PsychologistHandler{Service: service, Bookings: bookings, Notifications: notifications}
}

// Directory lists active psychologists for the public booking page.
func (h *PsychologistHandler) Directory(c *gin.Context) {
	psychs, err := h.Service.Directory(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list psychologists", err.Error())
		return
	}
	c.JSON(http.StatusOK, psychs)
}

// PublicProfile returns one psychologist's public profile.
func (h *PsychologistHandler) PublicProfile(c *gin.Context) {
	psych, err := h.Service.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Psychologist not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, psych)
}

// SignIn exchanges credentials for a bearer token.
func (h *PsychologistHandler) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid sign-in request", err.Error())
		return
	}

	token, psych, err := h.Service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, psychologist.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Sign-in failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "psychologist": psych})
}

// SignOut revokes the caller's token.
func (h *PsychologistHandler) SignOut(c *gin.Context) {
	if err := h.Service.SignOut(c.Request.Context(), c.GetString(middleware.ContextPsychologistID)); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Sign-out failed", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard returns the landing view.
func (h *PsychologistHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.Service.Dashboard(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load dashboard", err.Error())
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Profile returns the caller's own profile.
func (h *PsychologistHandler) Profile(c *gin.Context) {
	psych, err := h.Service.Profile(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Psychologist not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, psych)
}

// UpdateProfile edits the caller's profile.
func (h *PsychologistHandler) UpdateProfile(c *gin.Context) {
	var req models.Psychologist
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid profile", err.Error())
		return
	}

	psych, err := h.Service.UpdateProfile(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), &req)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update profile", err.Error())
		return
	}
	c.JSON(http.StatusOK, psych)
}

// Appointments lists the caller's bookings with optional status and date
// range filters.
func (h *PsychologistHandler) Appointments(c *gin.Context) {
	filter := bookingRepo.ListFilter{Status: c.Query("status")}
	if from, err := time.ParseInLocation("2006-01-02", c.Query("from"), time.Local); err == nil {
		filter.From = &from
	}
	if to, err := time.ParseInLocation("2006-01-02", c.Query("to"), time.Local); err == nil {
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}

	bookings, err := h.Service.Appointments(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), filter)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list appointments", err.Error())
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// Appointment returns one booking, owner-checked.
func (h *PsychologistHandler) Appointment(c *gin.Context) {
	b, err := h.Bookings.GetForPsychologist(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("bookingId"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UpdateAppointmentStatus records completed, no_show, or a practitioner
// cancellation.
func (h *PsychologistHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid status request", err.Error())
		return
	}

	b, err := h.Bookings.UpdateStatus(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("bookingId"), req.Status, req.Reason)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// AddAppointmentNotes attaches private session notes.
func (h *PsychologistHandler) AddAppointmentNotes(c *gin.Context) {
	var req models.NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid notes request", err.Error())
		return
	}

	b, err := h.Bookings.AddNotes(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("bookingId"), req.Notes)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// NotificationLog returns the newest delivery intents for the practice,
// sent and failed alike, so delivery problems are visible from the portal.
func (h *PsychologistHandler) NotificationLog(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	log, err := h.Notifications.ListRecent(c.Request.Context(), limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load notification log", err.Error())
		return
	}
	c.JSON(http.StatusOK, log)
}

// AppointmentNotifications returns the delivery log for one appointment,
// owner-checked.
func (h *PsychologistHandler) AppointmentNotifications(c *gin.Context) {
	log, err := h.Bookings.AppointmentNotifications(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("bookingId"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// Clients returns the derived per-client summaries.
func (h *PsychologistHandler) Clients(c *gin.Context) {
	clients, err := h.Service.Clients(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list clients", err.Error())
		return
	}
	c.JSON(http.StatusOK, clients)
}

// ClientAppointments lists one client's history with the caller.
func (h *PsychologistHandler) ClientAppointments(c *gin.Context) {
	bookings, err := h.Service.ClientAppointments(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("email"))
	if err != nil {
		if errors.Is(err, psychologist.ErrClientNotFound) {
			utils.JSONError(c, http.StatusNotFound, "Client not found", err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list client appointments", err.Error())
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ClientMessages returns the conversation with one client.
func (h *PsychologistHandler) ClientMessages(c *gin.Context) {
	messages, err := h.Service.ClientMessages(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("email"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load messages", err.Error())
		return
	}
	c.JSON(http.StatusOK, messages)
}
