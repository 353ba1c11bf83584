package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	sessionTypeRepo "groundandgrow/database/repository/sessiontype"
	"groundandgrow/middleware"
	"groundandgrow/models"
	"groundandgrow/services/availability"
	"groundandgrow/utils"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves the public slot lookups and the
// psychologist-side calendar management.
type AvailabilityHandler struct {
	Engine       *availability.Engine
	Management   *availability.Management
	SessionTypes sessionTypeRepo.SessionTypeRepository
}

func NewAvailabilityHandler(engine *availability.Engine, management *availability.Management, sessionTypes sessionTypeRepo.SessionTypeRepository) *AvailabilityHandler {
	return &AvailabilityHandler{Engine: engine, Management: management, SessionTypes: sessionTypes}
}

// GetDayAvailability is the public slot listing for one psychologist, date,
// and session type.
func (h *AvailabilityHandler) GetDayAvailability(c *gin.Context) {
	psychologistID := c.Param("id")

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid date", "query parameter 'date' must be YYYY-MM-DD")
		return
	}

	duration, err := h.resolveDuration(c)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid duration", err.Error())
		return
	}

	day, err := h.Engine.SlotsForDate(c.Request.Context(), psychologistID, date, duration)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to compute availability", err.Error())
		return
	}
	c.JSON(http.StatusOK, day)
}

// resolveDuration takes either a sessionTypeId or an explicit duration in
// minutes.
func (h *AvailabilityHandler) resolveDuration(c *gin.Context) (int, error) {
	if sessionTypeID := c.Query("sessionTypeId"); sessionTypeID != "" {
		sessionType, err := h.SessionTypes.GetByID(c.Request.Context(), sessionTypeID)
		if err != nil {
			return 0, errors.New("unknown session type")
		}
		return sessionType.DurationMinutes, nil
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "60"))
	if err != nil || duration <= 0 {
		return 0, errors.New("duration must be a positive integer of minutes")
	}
	return duration, nil
}

// ListSessionTypes is the public service catalogue.
func (h *AvailabilityHandler) ListSessionTypes(c *gin.Context) {
	sessionTypes, err := h.SessionTypes.ListActive(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list session types", err.Error())
		return
	}
	c.JSON(http.StatusOK, sessionTypes)
}

// ListWindows returns the caller's recurring windows.
func (h *AvailabilityHandler) ListWindows(c *gin.Context) {
	windows, err := h.Management.ListWindows(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list availability", err.Error())
		return
	}
	c.JSON(http.StatusOK, windows)
}

// AddWindow creates a recurring window.
func (h *AvailabilityHandler) AddWindow(c *gin.Context) {
	var req models.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid availability request", err.Error())
		return
	}

	window, err := h.Management.AddWindow(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), &req)
	if err != nil {
		writeCalendarError(c, err)
		return
	}
	c.JSON(http.StatusCreated, window)
}

// UpdateWindow edits a recurring window.
func (h *AvailabilityHandler) UpdateWindow(c *gin.Context) {
	var req models.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid availability request", err.Error())
		return
	}

	window, err := h.Management.UpdateWindow(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("windowId"), &req)
	if err != nil {
		writeCalendarError(c, err)
		return
	}
	c.JSON(http.StatusOK, window)
}

// DeleteWindow removes a recurring window.
func (h *AvailabilityHandler) DeleteWindow(c *gin.Context) {
	if err := h.Management.DeleteWindow(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("windowId")); err != nil {
		writeCalendarError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTimeOff returns the caller's time-off periods.
func (h *AvailabilityHandler) ListTimeOff(c *gin.Context) {
	periods, err := h.Management.ListTimeOff(c.Request.Context(), c.GetString(middleware.ContextPsychologistID))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list time off", err.Error())
		return
	}
	c.JSON(http.StatusOK, periods)
}

// AddTimeOff blocks out a period.
func (h *AvailabilityHandler) AddTimeOff(c *gin.Context) {
	var req models.TimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid time off request", err.Error())
		return
	}

	timeOff, err := h.Management.AddTimeOff(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), &req)
	if err != nil {
		writeCalendarError(c, err)
		return
	}
	c.JSON(http.StatusCreated, timeOff)
}

// DeleteTimeOff removes a time-off period.
func (h *AvailabilityHandler) DeleteTimeOff(c *gin.Context) {
	if err := h.Management.DeleteTimeOff(c.Request.Context(), c.GetString(middleware.ContextPsychologistID), c.Param("timeOffId")); err != nil {
		writeCalendarError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeCalendarError(c *gin.Context, err error) {
	var validation *availability.ValidationError
	switch {
	case errors.As(err, &validation):
		utils.JSONError(c, http.StatusBadRequest, "Invalid calendar change", err.Error())
	case errors.Is(err, availability.ErrWindowNotFound), errors.Is(err, availability.ErrTimeOffNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
	}
}
