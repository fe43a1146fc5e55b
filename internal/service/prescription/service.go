package prescription

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	"github.com/meridianlabs/clinic-api/internal/service/token"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
)

// StatusChanger moves an appointment through its lifecycle on behalf of
// an identified caller. Satisfied by the appointment service.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, identifier string) error
}

// Service writes prescriptions. Saving one is coupled to the appointment
// lifecycle: the appointment is marked Completed first, and if that step
// fails the prescription is not written at all.
type Service struct {
	repo         repository.PrescriptionRepository
	appointments StatusChanger
	tokens       *token.Service
}

func NewService(
	repo repository.PrescriptionRepository,
	appointments StatusChanger,
	tokens *token.Service,
) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		tokens:       tokens,
	}
}

// Save records a prescription for an appointment and marks that
// appointment Completed. One prescription per appointment.
func (s *Service) Save(ctx context.Context, req *model.CreatePrescriptionRequest, tokenString string) (*model.Prescription, error) {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	existing, err := s.repo.GetByAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("appointment already has a prescription")
	}

	// Completion has to land before the prescription does; a failure here
	// aborts the whole operation.
	if err := s.appointments.ChangeStatus(ctx, req.AppointmentID, model.AppointmentStatusCompleted, identifier); err != nil {
		return nil, err
	}

	p := &model.Prescription{
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
		RefillCount:   req.RefillCount,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

// GetByAppointment returns the prescription for an appointment, if any.
func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if p == nil {
		return nil, apperrors.NotFound("prescription")
	}
	return p, nil
}
