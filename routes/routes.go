package routes

import (
	psychRepo "groundandgrow/database/repository/psychologist"
	"groundandgrow/handlers"
	"groundandgrow/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Booking      *handlers.BookingHandler
	Availability *handlers.AvailabilityHandler
	Psychologist *handlers.PsychologistHandler
	Message      *handlers.MessageHandler
	Webhook      *handlers.WebhookHandler
}

// Register wires all routes onto the engine. Guest routes authenticate by
// booking access token in the path; the psychologist group requires a
// bearer token.
func Register(r *gin.Engine, h *Handlers, psychs psychRepo.PsychologistRepository) {
	r.GET("/health", handlers.Health)

	// Stripe signs the raw body; this route stays outside the rate limiter
	// so provider retries are never throttled.
	r.POST("/webhooks/stripe", h.Webhook.HandleStripeEvent)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware())

	// Public booking surface.
	api.GET("/psychologists", h.Psychologist.Directory)
	api.GET("/psychologists/:id", h.Psychologist.PublicProfile)
	api.GET("/psychologists/:id/availability", h.Availability.GetDayAvailability)
	api.GET("/session-types", h.Availability.ListSessionTypes)

	api.POST("/bookings", h.Booking.CreateBooking)
	api.GET("/bookings", h.Booking.ListByEmail)
	api.GET("/bookings/:token", h.Booking.GetBooking)
	api.POST("/bookings/:token/cancel", h.Booking.CancelBooking)
	api.POST("/bookings/:token/reschedule", h.Booking.RescheduleBooking)
	api.POST("/bookings/:token/messages", h.Message.GuestSend)
	api.GET("/bookings/:token/messages", h.Message.GuestThread)

	api.POST("/auth/sign-in", h.Psychologist.SignIn)

	// Authenticated practitioner portal.
	portal := api.Group("/psychologist")
	portal.Use(middleware.PsychologistAuth(psychs))
	{
		portal.POST("/sign-out", h.Psychologist.SignOut)
		portal.GET("/dashboard", h.Psychologist.Dashboard)
		portal.GET("/profile", h.Psychologist.Profile)
		portal.PUT("/profile", h.Psychologist.UpdateProfile)

		portal.GET("/appointments", h.Psychologist.Appointments)
		portal.GET("/appointments/:bookingId", h.Psychologist.Appointment)
		portal.PUT("/appointments/:bookingId/status", h.Psychologist.UpdateAppointmentStatus)
		portal.PUT("/appointments/:bookingId/notes", h.Psychologist.AddAppointmentNotes)
		portal.GET("/appointments/:bookingId/notifications", h.Psychologist.AppointmentNotifications)
		portal.GET("/notifications", h.Psychologist.NotificationLog)

		portal.GET("/availability", h.Availability.ListWindows)
		portal.POST("/availability", h.Availability.AddWindow)
		portal.PUT("/availability/:windowId", h.Availability.UpdateWindow)
		portal.DELETE("/availability/:windowId", h.Availability.DeleteWindow)
		portal.GET("/time-off", h.Availability.ListTimeOff)
		portal.POST("/time-off", h.Availability.AddTimeOff)
		portal.DELETE("/time-off/:timeOffId", h.Availability.DeleteTimeOff)

		portal.GET("/clients", h.Psychologist.Clients)
		portal.GET("/clients/:email/appointments", h.Psychologist.ClientAppointments)
		portal.GET("/clients/:email/messages", h.Psychologist.ClientMessages)

		portal.GET("/messages", h.Message.Inbox)
		portal.GET("/messages/unread", h.Message.Unread)
		portal.POST("/messages", h.Message.Send)
		portal.PUT("/messages/:messageId/read", h.Message.MarkRead)
		portal.DELETE("/messages/:messageId", h.Message.Delete)
	}
}
