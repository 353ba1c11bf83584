package notification

import (
	"context"
	"testing"
	"time"

	"groundandgrow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceClock = time.Date(2030, time.June, 1, 12, 0, 0, 0, time.Local)

func newTestService(repo *memNotificationRepo) *DefaultNotificationService {
	svc := NewNotificationService(repo, 24*time.Hour)
	svc.Now = func() time.Time { return serviceClock }
	return svc
}

func testBooking(appointmentAt time.Time) *models.Booking {
	return &models.Booking{
		ID:              "b-1",
		FirstName:       "Alex",
		Email:           "alex@example.com",
		Phone:           "+61400000000",
		AppointmentAt:   appointmentAt,
		DurationMinutes: 60,
	}
}

func TestScheduleDefaultsAndPersists(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := newTestService(repo)

	n := &models.Notification{
		RecipientEmail: "alex@example.com",
		Type:           models.TypeBookingConfirmation,
		Subject:        "hello",
		Message:        "body",
	}
	require.NoError(t, svc.Schedule(context.Background(), n))

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, models.NotificationPending, n.Status)
	assert.Equal(t, serviceClock, n.ScheduledFor)
	assert.Equal(t, models.DeliverEmail, n.DeliveryMethod)

	stored, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationPending, stored.Status)
}

func TestBookingConfirmationUsesBothChannelsWhenPhonePresent(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.SendBookingConfirmation(context.Background(), testBooking(serviceClock.Add(72*time.Hour)), "Dana Reyes"))

	due, err := repo.ListDue(context.Background(), serviceClock)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, models.DeliverBoth, due[0].DeliveryMethod)
	assert.Contains(t, due[0].Message, "Dana Reyes")
	assert.Equal(t, "b-1", due[0].BookingID)
}

func TestReminderScheduledAtLeadBeforeAppointment(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := newTestService(repo)
	appointmentAt := serviceClock.Add(72 * time.Hour)

	scheduled, err := svc.ScheduleAppointmentReminder(context.Background(), testBooking(appointmentAt), "Dana Reyes")
	require.NoError(t, err)
	assert.True(t, scheduled)

	// Not due now, due once the lead boundary passes.
	due, _ := repo.ListDue(context.Background(), serviceClock)
	assert.Empty(t, due)
	due, _ = repo.ListDue(context.Background(), appointmentAt.Add(-24*time.Hour))
	require.Len(t, due, 1)
	assert.Equal(t, models.TypeReminder, due[0].Type)
}

func TestReminderSkippedInsideLead(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := newTestService(repo)

	// Appointment is 2 hours away; the 24h reminder point already passed.
	scheduled, err := svc.ScheduleAppointmentReminder(context.Background(), testBooking(serviceClock.Add(2*time.Hour)), "Dana Reyes")
	require.NoError(t, err)
	assert.False(t, scheduled)

	due, _ := repo.ListDue(context.Background(), serviceClock.Add(48*time.Hour))
	assert.Empty(t, due)
}

func TestListRecentClampsNonPositiveLimit(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.SendBookingConfirmation(context.Background(), testBooking(serviceClock.Add(72*time.Hour)), "Dana Reyes"))

	recent, err := svc.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(defaultLogLimit), repo.lastLimit)

	_, err = svc.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), repo.lastLimit)
}

func TestMessageReceivedNotification(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.NotifyMessageReceived(context.Background(), "alex@example.com", "guest", "alex@example.com", "Dana Reyes"))

	due, _ := repo.ListDue(context.Background(), serviceClock)
	require.Len(t, due, 1)
	assert.Equal(t, models.TypeMessageReceived, due[0].Type)
	assert.Contains(t, due[0].Message, "Dana Reyes")
	assert.Equal(t, models.DeliverEmail, due[0].DeliveryMethod)
}
