package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"groundandgrow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservesSlotAndOpensCheckout(t *testing.T) {
	f := newFixture()

	resp, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.BookingID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "cs_"+resp.BookingID, resp.CheckoutSessionID)

	stored, err := f.repo.GetByID(context.Background(), resp.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, stored.Status)
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, 60, stored.DurationMinutes)
	assert.Equal(t, 220.0, stored.Amount)
	assert.Equal(t, resp.CheckoutSessionID, stored.CheckoutSessionID)
	// Nothing is queued until payment confirms.
	assert.Empty(t, f.notifier.scheduled)
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), f.request())
	require.NoError(t, err)

	other := f.request()
	other.Email = "someone.else@example.com"
	_, err = f.service.Create(context.Background(), other)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateRejectsOutsideWindow(t *testing.T) {
	f := newFixture()

	req := f.request()
	req.AppointmentAt = appointmentAt.Add(12 * time.Hour) // 22:00, past window end
	_, err := f.service.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateReleasesSlotOnGatewayFailure(t *testing.T) {
	f := newFixture()
	f.gateway.checkoutErr = errors.New("provider down")

	_, err := f.service.Create(context.Background(), f.request())
	var gateway *GatewayError
	require.ErrorAs(t, err, &gateway)

	// The slot must be bookable again.
	f.gateway.checkoutErr = nil
	_, err = f.service.Create(context.Background(), f.request())
	assert.NoError(t, err)
}

func TestCreateUnknownPsychologist(t *testing.T) {
	f := newFixture()

	req := f.request()
	req.PsychologistID = "nobody"
	_, err := f.service.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrPsychologistNotFound)
}

func TestCreateUnknownSessionType(t *testing.T) {
	f := newFixture()

	req := f.request()
	req.SessionTypeID = "nothing"
	_, err := f.service.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrSessionTypeNotFound)
}

func TestCreateRejectsUnofferedModality(t *testing.T) {
	f := newFixture()

	req := f.request()
	req.Modality = "carrier_pigeon"
	_, err := f.service.Create(context.Background(), req)
	var policy *PolicyViolationError
	assert.ErrorAs(t, err, &policy)
}

func TestCreateRejectsPastAppointment(t *testing.T) {
	f := newFixture()

	req := f.request()
	req.AppointmentAt = f.clock.Add(-time.Minute)
	_, err := f.service.Create(context.Background(), req)
	var policy *PolicyViolationError
	assert.ErrorAs(t, err, &policy)
}

func TestCreateConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture()

	// All requested intervals overlap each other, so at most one reserve
	// can survive no matter how the goroutines interleave.
	starts := []time.Time{appointmentAt, appointmentAt.Add(30 * time.Minute)}
	const writers = 8

	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := f.request()
			req.Email = fmt.Sprintf("guest%d@example.com", i)
			req.AppointmentAt = starts[i%len(starts)]
			_, err := f.service.Create(context.Background(), req)
			results[i] = err
		}(i)
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

	dayStart := appointmentAt.Add(-10 * time.Hour)
	stored, err := f.repo.ListOccupyingBetween(context.Background(), testPsychID, dayStart, dayStart.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, stored, 1)
	for i := range stored {
		for j := i + 1; j < len(stored); j++ {
			overlap := stored[i].AppointmentAt.Before(stored[j].End()) && stored[i].End().After(stored[j].AppointmentAt)
			assert.False(t, overlap, "stored occupying bookings overlap")
		}
	}
}

func TestGetByTokenUnknown(t *testing.T) {
	f := newFixture()

	_, err := f.service.GetByToken(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
