package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is a small-integer status column. The zero value is
// Cancelled so that an accidental zero write never resurrects a booking.
type AppointmentStatus int16

const (
	AppointmentStatusCancelled AppointmentStatus = 0
	AppointmentStatusScheduled AppointmentStatus = 1
	AppointmentStatusCompleted AppointmentStatus = 2
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusCancelled, AppointmentStatusScheduled, AppointmentStatusCompleted:
		return true
	}
	return false
}

func (s AppointmentStatus) String() string {
	switch s {
	case AppointmentStatusCancelled:
		return "cancelled"
	case AppointmentStatusScheduled:
		return "scheduled"
	case AppointmentStatusCompleted:
		return "completed"
	}
	return "unknown"
}

type Appointment struct {
	Base
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	AppointmentTime time.Time         `db:"appointment_time" json:"appointment_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Reason          string            `db:"reason" json:"reason,omitempty"`
}

// EndTime derives the end of the visit; every booking is a fixed one-hour
// slot.
func (a *Appointment) EndTime() time.Time {
	return a.AppointmentTime.Add(SlotDuration)
}

// Slot is the canonical slot string this appointment occupies.
func (a *Appointment) Slot() string {
	return SlotForTime(a.AppointmentTime)
}

type BookAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	AppointmentTime time.Time `json:"appointment_time" binding:"required"`
	Reason          string    `json:"reason" binding:"max=500"`
}

// RescheduleAppointmentRequest overwrites the appointment wholesale.
// Status defaults to Cancelled when omitted; callers keeping an
// appointment alive must send the status they want.
type RescheduleAppointmentRequest struct {
	AppointmentTime time.Time         `json:"appointment_time" binding:"required"`
	Status          AppointmentStatus `json:"status"`
	Reason          string            `json:"reason" binding:"max=500"`
}

// AppointmentView is the projection returned to callers; it carries the
// joined doctor and patient names but never credential fields.
type AppointmentView struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	DoctorName      string            `db:"doctor_name" json:"doctor_name"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	PatientName     string            `db:"patient_name" json:"patient_name"`
	PatientEmail    string            `db:"patient_email" json:"patient_email"`
	PatientPhone    string            `db:"patient_phone" json:"patient_phone"`
	AppointmentTime time.Time         `db:"appointment_time" json:"appointment_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Reason          string            `db:"reason" json:"reason,omitempty"`
}
