package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"groundandgrow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) createAndConfirm(t *testing.T) *models.Booking {
	t.Helper()

	resp, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)
	require.NoError(t, f.service.HandlePaymentSuccess(context.Background(), resp.CheckoutSessionID, "pi_1"))

	b, err := f.repo.GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)
	return b
}

func TestHandlePaymentSuccessConfirms(t *testing.T) {
	f := newFixture()

	b := f.createAndConfirm(t)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentCompleted, b.PaymentStatus)
	assert.Equal(t, "pi_1", b.PaymentIntentID)
	assert.True(t, b.ReminderSent)

	assert.Equal(t, 1, f.notifier.countByType(models.TypeBookingConfirmation))
	assert.Equal(t, 1, f.notifier.countByType(models.TypeReminder))
}

func TestHandlePaymentSuccessIdempotent(t *testing.T) {
	f := newFixture()

	b := f.createAndConfirm(t)
	// The provider replays the event.
	require.NoError(t, f.service.HandlePaymentSuccess(context.Background(), b.CheckoutSessionID, "pi_1"))

	assert.Equal(t, 1, f.notifier.countByType(models.TypeBookingConfirmation))
	assert.Equal(t, 1, f.notifier.countByType(models.TypeReminder))
}

func TestHandlePaymentSuccessSkipsReminderInsideLead(t *testing.T) {
	f := newFixture()
	f.notifier.remindOK = false

	b := f.createAndConfirm(t)
	assert.False(t, b.ReminderSent)
	assert.Equal(t, 0, f.notifier.countByType(models.TypeReminder))
}

func TestHandlePaymentSuccessUnknownSession(t *testing.T) {
	f := newFixture()

	err := f.service.HandlePaymentSuccess(context.Background(), "cs_unknown", "pi_1")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestHandlePaymentFailureReleasesSlot(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)
	require.NoError(t, f.service.HandlePaymentFailure(context.Background(), resp.CheckoutSessionID))

	b, err := f.repo.GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
	assert.Equal(t, models.PaymentFailed, b.PaymentStatus)

	// A new guest can now take the same slot.
	other := f.request()
	other.Email = "next@example.com"
	_, err = f.service.Create(context.Background(), other)
	assert.NoError(t, err)
}

func TestHandlePaymentFailureIgnoresConfirmed(t *testing.T) {
	f := newFixture()

	b := f.createAndConfirm(t)
	require.NoError(t, f.service.HandlePaymentFailure(context.Background(), b.CheckoutSessionID))

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestCancelWithNoticeRefunds(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	// Exactly at the notice boundary still qualifies.
	f.clock = appointmentAt.Add(-24 * time.Hour)

	resp, err := f.service.Cancel(context.Background(), b.AccessToken, "schedule conflict")
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.True(t, resp.RefundEligible)
	assert.True(t, resp.RefundProcessed)
	assert.Equal(t, 220.0, resp.RefundAmount)
	assert.Equal(t, "pi_1", f.gateway.lastRefundPI)
	assert.Equal(t, int64(22000), f.gateway.lastRefundCents)

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentRefunded, stored.PaymentStatus)
	assert.Equal(t, "schedule conflict", stored.CancellationReason)

	assert.Contains(t, f.notifier.cancelled, b.ID)
	assert.Equal(t, 1, f.notifier.countByType(models.TypeCancellation))
}

func TestCancelInsideNoticeKeepsPayment(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	// One second past the boundary forfeits the refund.
	f.clock = appointmentAt.Add(-24*time.Hour + time.Second)

	resp, err := f.service.Cancel(context.Background(), b.AccessToken, "")
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.False(t, resp.RefundEligible)
	assert.False(t, resp.RefundProcessed)
	assert.Equal(t, 0, f.gateway.refundCalls)

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
}

func TestCancelSurvivesRefundFailure(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)
	f.gateway.refundErr = errors.New("refund declined")
	f.clock = appointmentAt.Add(-48 * time.Hour)

	resp, err := f.service.Cancel(context.Background(), b.AccessToken, "")
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.True(t, resp.RefundEligible)
	assert.False(t, resp.RefundProcessed)
	assert.Contains(t, resp.RefundError, "refund declined")

	// The cancellation stands even though the refund failed.
	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
}

func TestCancelRequiresConfirmed(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), resp.AccessToken, "")
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, models.StatusPendingPayment, transition.From)
}

func TestRescheduleMovesBooking(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	newAt := appointmentAt.Add(2 * time.Hour)
	moved, err := f.service.Reschedule(context.Background(), b.AccessToken, newAt)
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.ID)
	assert.Equal(t, newAt, moved.AppointmentAt)
	assert.Equal(t, models.StatusConfirmed, moved.Status)

	// Stale reminders are cancelled and fresh notifications queued.
	assert.Contains(t, f.notifier.cancelled, b.ID)
	assert.Equal(t, 2, f.notifier.countByType(models.TypeBookingConfirmation))
}

func TestRescheduleRejectsOccupiedTarget(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	other := f.request()
	other.Email = "next@example.com"
	other.AppointmentAt = appointmentAt.Add(2 * time.Hour)
	_, err := f.service.Create(context.Background(), other)
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), b.AccessToken, other.AppointmentAt)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestRescheduleConcurrentIntoOverlappingTargets(t *testing.T) {
	f := newFixture()
	first := f.createAndConfirm(t)

	req := f.request()
	req.Email = "next@example.com"
	req.AppointmentAt = appointmentAt.Add(3 * time.Hour)
	resp, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, f.service.HandlePaymentSuccess(context.Background(), resp.CheckoutSessionID, "pi_2"))
	second, err := f.repo.GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)

	// Both targets overlap; the transactional move lets only one land even
	// when both pass the availability pre-check.
	targets := map[string]time.Time{
		first.AccessToken:  appointmentAt.Add(5 * time.Hour),
		second.AccessToken: appointmentAt.Add(5*time.Hour + 30*time.Minute),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]error, len(targets))
	for token, target := range targets {
		wg.Add(1)
		go func(token string, target time.Time) {
			defer wg.Done()
			_, err := f.service.Reschedule(context.Background(), token, target)
			mu.Lock()
			results[token] = err
			mu.Unlock()
		}(token, target)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, succeeded)

	// The stored intervals must not overlap.
	a, err := f.repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	b, err := f.repo.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	overlap := a.AppointmentAt.Before(b.End()) && a.End().After(b.AppointmentAt)
	assert.False(t, overlap, "rescheduled bookings overlap")
}

func TestRescheduleRequiresConfirmed(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)

	_, err = f.service.Reschedule(context.Background(), resp.AccessToken, appointmentAt.Add(2*time.Hour))
	var transition *InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name   string
		from   string
		to     string
		wantOK bool
	}{
		{"confirmed to completed", models.StatusConfirmed, models.StatusCompleted, true},
		{"confirmed to no_show", models.StatusConfirmed, models.StatusNoShow, true},
		{"confirmed to cancelled", models.StatusConfirmed, models.StatusCancelled, true},
		{"confirmed to pending_payment", models.StatusConfirmed, models.StatusPendingPayment, false},
		{"completed to no_show", models.StatusCompleted, models.StatusNoShow, false},
		{"cancelled to completed", models.StatusCancelled, models.StatusCompleted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := f.createAndConfirm(t)
			if tc.from != models.StatusConfirmed {
				b.Status = tc.from
				require.NoError(t, f.repo.Update(context.Background(), b))
			}

			updated, err := f.service.UpdateStatus(context.Background(), testPsychID, b.ID, tc.to, "")
			if tc.wantOK {
				require.NoError(t, err)
				assert.Equal(t, tc.to, updated.Status)
			} else {
				var transition *InvalidTransitionError
				assert.ErrorAs(t, err, &transition)
			}

			// Free the slot for the next case.
			b.Status = models.StatusCancelled
			require.NoError(t, f.repo.Update(context.Background(), b))
		})
	}
}

func TestUpdateStatusOwnershipCheck(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	_, err := f.service.UpdateStatus(context.Background(), "intruder", b.ID, models.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestAddNotes(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	updated, err := f.service.AddNotes(context.Background(), testPsychID, b.ID, "made good progress")
	require.NoError(t, err)
	assert.Equal(t, "made good progress", updated.PsychologistNotes)
}

func TestAppointmentNotificationsOwnerChecked(t *testing.T) {
	f := newFixture()
	b := f.createAndConfirm(t)

	log, err := f.service.AppointmentNotifications(context.Background(), testPsychID, b.ID)
	require.NoError(t, err)
	// Confirmation plus reminder from the payment success.
	assert.Len(t, log, 2)

	_, err = f.service.AppointmentNotifications(context.Background(), "intruder", b.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
