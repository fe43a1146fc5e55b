package patient

import (
	"context"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	"github.com/meridianlabs/clinic-api/internal/service/token"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

// Service handles patient registration and a patient's view over their
// own appointment history.
type Service struct {
	repo         repository.PatientRepository
	appointments repository.AppointmentRepository
	tokens       *token.Service
	hasher       security.PasswordHasher
}

func NewService(
	repo repository.PatientRepository,
	appointments repository.AppointmentRepository,
	tokens *token.Service,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		tokens:       tokens,
		hasher:       hasher,
	}
}

// Register creates a patient account. Email and phone are both unique;
// reusing either is rejected.
func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	existing, err := s.repo.GetByEmailOrPhone(ctx, req.Email, req.Phone)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("patient with this email or phone already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	patient := &model.Patient{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

// Profile resolves the patient bound to the token.
func (s *Service) Profile(ctx context.Context, tokenString string) (*model.Patient, error) {
	return s.fromToken(ctx, tokenString)
}

// Appointments lists the caller's own appointments, optionally narrowed
// by condition ("past" or "future") and a partial doctor name. Both
// filters may be combined.
func (s *Service) Appointments(ctx context.Context, tokenString, condition, doctorName string) ([]*model.AppointmentView, error) {
	patient, err := s.fromToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	filters := repository.PatientAppointmentFilters{DoctorName: doctorName}
	if condition != "" {
		cond := model.AppointmentCondition(condition)
		status, ok := cond.Status()
		if !ok {
			return nil, apperrors.BadRequest("condition must be past or future", nil)
		}
		filters.Status = &status
	}

	views, err := s.appointments.ListForPatient(ctx, patient.ID, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return views, nil
}

func (s *Service) fromToken(ctx context.Context, tokenString string) (*model.Patient, error) {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}
	patient, err := s.repo.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if patient == nil {
		return nil, apperrors.NotFound("patient")
	}
	return patient, nil
}
