package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/meridianlabs/clinic-api/internal/model"
)

// ErrConflict is returned by AppointmentRepository.Book when another
// appointment already occupies the requested window. Storage faults are
// returned as ordinary wrapped errors; "not found" lookups return a nil
// record and a nil error.
var ErrConflict = errors.New("appointment slot conflict")

// PatientAppointmentFilters narrows a patient's appointment listing.
type PatientAppointmentFilters struct {
	DoctorName string
	Status     *model.AppointmentStatus
}

type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
		Search(ctx context.Context, name, specialty string) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		GetByEmailOrPhone(ctx context.Context, email, phone string) (*model.Patient, error)
	}

	AdminRepository interface {
		GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	}

	AppointmentRepository interface {
		// Book atomically verifies that no non-cancelled appointment for the
		// same doctor exists inside [windowStart, windowEnd] and inserts the
		// new row; returns ErrConflict when one does. The check and the
		// insert must not interleave with a concurrent Book for the same
		// doctor.
		Book(ctx context.Context, apt *model.Appointment, windowStart, windowEnd time.Time) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Update overwrites time, status and reason in a single statement.
		Update(ctx context.Context, apt *model.Appointment) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		// ActiveByDoctorInRange lists non-cancelled appointments for the
		// doctor whose time falls within [from, to].
		ActiveByDoctorInRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		// ListForDoctor returns the day view (all statuses) with patient
		// details joined in; patientName optionally narrows by partial match.
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*model.AppointmentView, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID, filters PatientAppointmentFilters) ([]*model.AppointmentView, error)
		DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, p *model.Prescription) error
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	}
)
