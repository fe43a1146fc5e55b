package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianlabs/clinic-api/internal/email"
	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	"github.com/meridianlabs/clinic-api/internal/service/event"
	"github.com/meridianlabs/clinic-api/internal/service/token"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/logger"
	"github.com/meridianlabs/clinic-api/pkg/metrics"
)

// conflictWindow brackets the requested time when probing for an existing
// booking: anything within a minute either side counts as the same slot.
const conflictWindow = time.Minute

// Service is the booking coordinator. It validates slot reservations,
// prevents double-booking and owns the appointment status state machine:
// bookings start Scheduled, Cancel forces Cancelled unconditionally, and
// the prescription workflow moves them to Completed.
type Service struct {
	repo     repository.AppointmentRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	tokens   *token.Service
	events   *event.Service
	mailer   email.Service
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	tokens *token.Service,
	events *event.Service,
	mailer email.Service,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		patients: patients,
		tokens:   tokens,
		events:   events,
		mailer:   mailer,
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock overrides the time source; tests use it to pin "the future".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Book reserves a slot for the patient bound to the token. The patient is
// always resolved server-side from the token identifier; client-supplied
// patient identity is never trusted. The conflict check and the insert are
// atomic with respect to concurrent bookings for the same doctor.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest, patientToken string) (*model.Appointment, error) {
	identifier, err := s.tokens.Verify(patientToken)
	if err != nil {
		s.countBooking("unauthorized")
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	patient, err := s.patients.GetByEmail(ctx, identifier)
	if err != nil {
		s.countBooking("error")
		return nil, apperrors.Internal(err)
	}
	if patient == nil {
		s.countBooking("patient_not_found")
		return nil, apperrors.NotFound("patient")
	}

	doctor, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		s.countBooking("error")
		return nil, apperrors.Internal(err)
	}
	if doctor == nil {
		s.countBooking("doctor_not_found")
		return nil, apperrors.NotFound("doctor")
	}

	if !req.AppointmentTime.After(s.now()) {
		s.countBooking("invalid_time")
		return nil, apperrors.BadRequest("appointment time must be in the future", nil)
	}

	apt := &model.Appointment{
		DoctorID:        doctor.ID,
		PatientID:       patient.ID,
		AppointmentTime: req.AppointmentTime,
		Status:          model.AppointmentStatusScheduled,
		Reason:          req.Reason,
	}

	windowStart := req.AppointmentTime.Add(-conflictWindow)
	windowEnd := req.AppointmentTime.Add(conflictWindow)
	if err := s.repo.Book(ctx, apt, windowStart, windowEnd); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.countBooking("conflict")
			return nil, apperrors.Conflict("slot is already booked")
		}
		s.countBooking("error")
		return nil, apperrors.Internal(err)
	}

	s.countBooking("success")
	s.emit(ctx, model.EventAppointmentBooked, apt)

	if err := s.mailer.SendBookingConfirmation(patient.Email, patient.Name, doctor.Name, apt.AppointmentTime); err != nil {
		s.logger.Error(err, "failed to send booking confirmation", "appointment_id", apt.ID.String())
	}

	return apt, nil
}

// Reschedule overwrites time, status and reason of an appointment. Only
// the appointment's doctor or patient may do so. The new time obeys the
// same future-only rule as Book.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest, tokenString string) (*model.Appointment, error) {
	if !req.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("undefined appointment status %d", req.Status), nil)
	}
	if !req.AppointmentTime.After(s.now()) {
		return nil, apperrors.BadRequest("appointment time must be in the future", nil)
	}

	apt, err := s.authorizeOwner(ctx, id, tokenString)
	if err != nil {
		return nil, err
	}

	apt.AppointmentTime = req.AppointmentTime
	apt.Status = req.Status
	apt.Reason = req.Reason

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.emit(ctx, model.EventAppointmentRescheduled, apt)
	return apt, nil
}

// Cancel forces the appointment to Cancelled regardless of its current
// state; cancelling an already-cancelled or completed appointment succeeds.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, tokenString string) error {
	apt, err := s.authorizeOwner(ctx, id, tokenString)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
		return apperrors.Internal(err)
	}

	apt.Status = model.AppointmentStatusCancelled
	s.emit(ctx, model.EventAppointmentCancelled, apt)

	s.notifyCancellation(ctx, apt)
	return nil
}

// ChangeStatus moves the appointment to the given status on behalf of the
// caller identified by identifier (already token-verified upstream). The
// prescription workflow uses it to mark appointments Completed; if it
// fails, the prescription write must not proceed.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, identifier string) error {
	if !status.Valid() {
		return apperrors.BadRequest(fmt.Sprintf("undefined appointment status %d", status), nil)
	}

	apt, err := s.getOwned(ctx, id, identifier)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return apperrors.Internal(err)
	}

	if status == model.AppointmentStatusCompleted {
		apt.Status = status
		s.emit(ctx, model.EventAppointmentCompleted, apt)
	}
	return nil
}

// DayViewForDoctor lists a doctor's appointments for a date, optionally
// narrowed by partial patient name. Only the doctor's own token may view
// their day.
func (s *Service) DayViewForDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName, tokenString string) ([]*model.AppointmentView, error) {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	doctor, err := s.doctors.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctor == nil || doctor.ID != doctorID {
		return nil, apperrors.Forbidden("appointments belong to another doctor")
	}

	from, to := dayBounds(date)
	views, err := s.repo.ListForDoctor(ctx, doctorID, from, to, patientName)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return views, nil
}

// authorizeOwner loads the appointment and checks that the token belongs
// to its doctor or its patient.
func (s *Service) authorizeOwner(ctx context.Context, id uuid.UUID, tokenString string) (*model.Appointment, error) {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	return s.getOwned(ctx, id, identifier)
}

// getOwned loads the appointment and checks ownership of identifier: it
// must equal the doctor's or the patient's email.
func (s *Service) getOwned(ctx context.Context, id uuid.UUID, identifier string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if apt == nil {
		return nil, apperrors.NotFound("appointment")
	}

	owner, err := s.isOwner(ctx, apt, identifier)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !owner {
		return nil, apperrors.Forbidden("caller does not own this appointment")
	}
	return apt, nil
}

func (s *Service) isOwner(ctx context.Context, apt *model.Appointment, identifier string) (bool, error) {
	doctor, err := s.doctors.Get(ctx, apt.DoctorID)
	if err != nil {
		return false, err
	}
	if doctor != nil && doctor.Email == identifier {
		return true, nil
	}

	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil {
		return false, err
	}
	return patient != nil && patient.Email == identifier, nil
}

func (s *Service) emit(ctx context.Context, eventType string, apt *model.Appointment) {
	payload := model.AppointmentEvent{
		AppointmentID:   apt.ID,
		DoctorID:        apt.DoctorID,
		PatientID:       apt.PatientID,
		AppointmentTime: apt.AppointmentTime,
		Status:          apt.Status,
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "failed to emit event", "event_type", eventType, "appointment_id", apt.ID.String())
	}
}

func (s *Service) notifyCancellation(ctx context.Context, apt *model.Appointment) {
	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil || patient == nil {
		return
	}
	doctor, err := s.doctors.Get(ctx, apt.DoctorID)
	if err != nil || doctor == nil {
		return
	}
	if err := s.mailer.SendCancellation(patient.Email, patient.Name, doctor.Name, apt.AppointmentTime); err != nil {
		s.logger.Error(err, "failed to send cancellation email", "appointment_id", apt.ID.String())
	}
}

func (s *Service) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingAttempts.WithLabelValues(outcome).Inc()
	}
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}
