package auth

import (
	"context"
	"fmt"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	"github.com/meridianlabs/clinic-api/internal/service/token"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

// Service is the authorization gate: it composes token verification with
// per-role repository lookups. Tokens carry no role claim, so the same
// token is role-checked against whichever repository an endpoint demands.
type Service struct {
	tokens   *token.Service
	admins   repository.AdminRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	hasher   security.PasswordHasher
}

func NewService(
	tokens *token.Service,
	admins repository.AdminRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		tokens:   tokens,
		admins:   admins,
		doctors:  doctors,
		patients: patients,
		hasher:   hasher,
	}
}

// Authorize verifies the token and checks that its identifier names an
// existing record of the required role. It intentionally does not return
// the resolved entity; callers re-resolve the identifier when they need it.
func (s *Service) Authorize(ctx context.Context, tokenString string, role model.Role) error {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired token")
	}
	if identifier == "" {
		// Verify already rejects empty subjects; kept as an independent
		// check so a broken verifier cannot silently pass an empty claim.
		return apperrors.Unauthorized("invalid or expired token")
	}

	switch role {
	case model.RoleAdmin:
		admin, err := s.admins.GetByUsername(ctx, identifier)
		if err != nil {
			return apperrors.Internal(err)
		}
		if admin == nil {
			return apperrors.Forbidden("token does not belong to an admin")
		}
	case model.RoleDoctor:
		doctor, err := s.doctors.GetByEmail(ctx, identifier)
		if err != nil {
			return apperrors.Internal(err)
		}
		if doctor == nil {
			return apperrors.Forbidden("token does not belong to a doctor")
		}
	case model.RolePatient:
		patient, err := s.patients.GetByEmail(ctx, identifier)
		if err != nil {
			return apperrors.Internal(err)
		}
		if patient == nil {
			return apperrors.Forbidden("token does not belong to a patient")
		}
	default:
		return apperrors.Forbidden(fmt.Sprintf("unknown role %q", role))
	}

	return nil
}

// Identifier verifies the token and returns the bound identifier without a
// role check.
func (s *Service) Identifier(tokenString string) (string, error) {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired token")
	}
	return identifier, nil
}

// Resolve maps a token to a tagged user reference, probing patient, then
// doctor, then admin. Reserved for role-agnostic paths; endpoints that know
// the expected role use Authorize instead.
func (s *Service) Resolve(ctx context.Context, tokenString string) (*model.UserRef, error) {
	identifier, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	patient, err := s.patients.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if patient != nil {
		return &model.UserRef{Role: model.RolePatient, ID: patient.ID, Identifier: identifier}, nil
	}

	doctor, err := s.doctors.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctor != nil {
		return &model.UserRef{Role: model.RoleDoctor, ID: doctor.ID, Identifier: identifier}, nil
	}

	admin, err := s.admins.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if admin != nil {
		return &model.UserRef{Role: model.RoleAdmin, ID: admin.ID, Identifier: identifier}, nil
	}

	return nil, apperrors.Unauthorized("token does not resolve to a known user")
}

// LoginAdmin validates admin credentials and issues a token bound to the
// username.
func (s *Service) LoginAdmin(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if admin == nil || s.hasher.Compare(admin.PasswordHash, password) != nil {
		return nil, apperrors.Unauthorized("invalid username or password")
	}

	return s.issue(admin.Username, model.RoleAdmin)
}

// LoginDoctor validates doctor credentials and issues a token bound to the
// email.
func (s *Service) LoginDoctor(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	doctor, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctor == nil || s.hasher.Compare(doctor.PasswordHash, password) != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	return s.issue(doctor.Email, model.RoleDoctor)
}

// LoginPatient validates patient credentials and issues a token bound to
// the email.
func (s *Service) LoginPatient(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	patient, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if patient == nil || s.hasher.Compare(patient.PasswordHash, password) != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	return s.issue(patient.Email, model.RolePatient)
}

func (s *Service) issue(identifier string, role model.Role) (*model.TokenResponse, error) {
	signed, err := s.tokens.Generate(identifier)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}
	return &model.TokenResponse{Token: signed, Role: role}, nil
}
