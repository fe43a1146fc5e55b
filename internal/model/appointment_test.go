package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotForTime(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "09:00-10:00", SlotForTime(at))

	// Off-grid starts still produce a well formed string, just one that
	// matches no canonical slot.
	assert.Equal(t, "09:30-10:30", SlotForTime(at.Add(30*time.Minute)))

	// Zero padding keeps lexicographic order chronological.
	assert.Equal(t, "08:00-09:00", SlotForTime(at.Add(-time.Hour)))
	assert.Less(t, SlotForTime(at.Add(-time.Hour)), SlotForTime(at))
}

func TestSlotStart(t *testing.T) {
	start, err := SlotStart("09:00-10:00")
	require.NoError(t, err)
	assert.Equal(t, 9, start.Hour())
	assert.Equal(t, 0, start.Minute())

	for _, bad := range []string{"", "9:00-10:00", "09:00–10:00", "09:00/10:00", "xx:00-10:00"} {
		_, err := SlotStart(bad)
		assert.Error(t, err, "slot %q", bad)
	}
}

func TestAppointmentStatusValid(t *testing.T) {
	assert.True(t, AppointmentStatusCancelled.Valid())
	assert.True(t, AppointmentStatusScheduled.Valid())
	assert.True(t, AppointmentStatusCompleted.Valid())
	assert.False(t, AppointmentStatus(3).Valid())
	assert.False(t, AppointmentStatus(-1).Valid())
}

func TestAppointmentEndTime(t *testing.T) {
	at := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	apt := &Appointment{AppointmentTime: at}
	assert.Equal(t, at.Add(time.Hour), apt.EndTime())
	assert.Equal(t, "14:00-15:00", apt.Slot())
}

func TestConditionStatus(t *testing.T) {
	status, ok := ConditionFuture.Status()
	require.True(t, ok)
	assert.Equal(t, AppointmentStatusScheduled, status)

	status, ok = ConditionPast.Status()
	require.True(t, ok)
	assert.Equal(t, AppointmentStatusCompleted, status)

	_, ok = AppointmentCondition("tomorrow").Status()
	assert.False(t, ok)
}
