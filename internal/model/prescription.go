package model

import "github.com/google/uuid"

// Prescription records what was issued for a completed appointment. At most
// one prescription exists per appointment.
type Prescription struct {
	Base
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientName   string    `db:"patient_name" json:"patient_name"`
	Medication    string    `db:"medication" json:"medication"`
	Dosage        string    `db:"dosage" json:"dosage"`
	DoctorNotes   string    `db:"doctor_notes" json:"doctor_notes,omitempty"`
	RefillCount   int       `db:"refill_count" json:"refill_count"`
}

type CreatePrescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	PatientName   string    `json:"patient_name" binding:"required"`
	Medication    string    `json:"medication" binding:"required"`
	Dosage        string    `json:"dosage" binding:"required"`
	DoctorNotes   string    `json:"doctor_notes" binding:"max=500"`
	RefillCount   int       `json:"refill_count" binding:"gte=0"`
}
