package availability

import (
	"context"
	"testing"

	"groundandgrow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagement() (*Management, *fakeWindows, *fakeTimeOff) {
	windows := &fakeWindows{}
	timeOff := &fakeTimeOff{}
	return &Management{Engine: newEngine(windows, timeOff, nil)}, windows, timeOff
}

func TestAddWindowValidation(t *testing.T) {
	m, _, _ := newManagement()

	cases := []struct {
		name string
		req  models.AvailabilityRequest
	}{
		{"unknown day", models.AvailabilityRequest{DayOfWeek: "FUNDAY", StartTime: "09:00", EndTime: "17:00"}},
		{"bad start", models.AvailabilityRequest{DayOfWeek: "MONDAY", StartTime: "9am", EndTime: "17:00"}},
		{"start after end", models.AvailabilityRequest{DayOfWeek: "MONDAY", StartTime: "17:00", EndTime: "09:00"}},
		{"start equals end", models.AvailabilityRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "09:00"}},
		{"bad effective date", models.AvailabilityRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "17:00", EffectiveFrom: "June 1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.AddWindow(context.Background(), psychID, &tc.req)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestAddWindowPersists(t *testing.T) {
	m, windows, _ := newManagement()

	created, err := m.AddWindow(context.Background(), psychID, &models.AvailabilityRequest{
		DayOfWeek: "MONDAY",
		StartTime: "09:00",
		EndTime:   "17:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsRecurring)

	stored, err := windows.ListByPsychologistAndDay(context.Background(), psychID, "MONDAY")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestUpdateWindowOwnership(t *testing.T) {
	m, windows, _ := newManagement()
	windows.windows = []models.Availability{{
		ID:             "w-1",
		PsychologistID: "someone-else",
		DayOfWeek:      "MONDAY",
		StartTime:      "09:00",
		EndTime:        "17:00",
	}}

	_, err := m.UpdateWindow(context.Background(), psychID, "w-1", &models.AvailabilityRequest{
		DayOfWeek: "TUESDAY",
		StartTime: "10:00",
		EndTime:   "16:00",
	})
	assert.ErrorIs(t, err, ErrWindowNotFound)
}

func TestAddTimeOffRejectsInvertedPeriod(t *testing.T) {
	m, _, _ := newManagement()

	_, err := m.AddTimeOff(context.Background(), psychID, &models.TimeOffRequest{
		StartAt: at("14:00"),
		EndAt:   at("13:00"),
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestDeleteTimeOffOwnership(t *testing.T) {
	m, _, timeOff := newManagement()
	timeOff.periods = []models.TimeOff{{
		ID:             "off-1",
		PsychologistID: "someone-else",
		StartAt:        at("09:00"),
		EndAt:          at("17:00"),
	}}

	err := m.DeleteTimeOff(context.Background(), psychID, "off-1")
	assert.ErrorIs(t, err, ErrTimeOffNotFound)
}
