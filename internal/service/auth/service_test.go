package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/service/token"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

type fakeAdmins struct {
	byUsername map[string]*model.Admin
}

func (f *fakeAdmins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	return f.byUsername[username], nil
}

type fakeDoctors struct {
	byEmail map[string]*model.Doctor
}

func (f *fakeDoctors) Create(_ context.Context, d *model.Doctor) error { f.byEmail[d.Email] = d; return nil }
func (f *fakeDoctors) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	for _, d := range f.byEmail {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}
func (f *fakeDoctors) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	return f.byEmail[email], nil
}
func (f *fakeDoctors) Update(_ context.Context, d *model.Doctor) error  { return nil }
func (f *fakeDoctors) Delete(_ context.Context, id uuid.UUID) error     { return nil }
func (f *fakeDoctors) List(_ context.Context) ([]*model.Doctor, error)  { return nil, nil }
func (f *fakeDoctors) Search(_ context.Context, name, specialty string) ([]*model.Doctor, error) {
	return nil, nil
}

type fakePatients struct {
	byEmail map[string]*model.Patient
}

func (f *fakePatients) Create(_ context.Context, p *model.Patient) error { f.byEmail[p.Email] = p; return nil }
func (f *fakePatients) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	for _, p := range f.byEmail {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}
func (f *fakePatients) GetByEmail(_ context.Context, email string) (*model.Patient, error) {
	return f.byEmail[email], nil
}
func (f *fakePatients) GetByEmailOrPhone(_ context.Context, email, phone string) (*model.Patient, error) {
	return f.byEmail[email], nil
}

func newTestService(t *testing.T) (*Service, *fakeAdmins, *fakeDoctors, *fakePatients) {
	t.Helper()

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)

	admins := &fakeAdmins{byUsername: map[string]*model.Admin{}}
	doctors := &fakeDoctors{byEmail: map[string]*model.Doctor{}}
	patients := &fakePatients{byEmail: map[string]*model.Patient{}}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	return NewService(tokens, admins, doctors, patients, hasher), admins, doctors, patients
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.NewBcryptHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return hash
}

func TestLoginDoctorAndAuthorize(t *testing.T) {
	svc, _, doctors, _ := newTestService(t)
	doctors.byEmail["doc@example.com"] = &model.Doctor{
		Base:         model.Base{ID: uuid.New()},
		Email:        "doc@example.com",
		PasswordHash: hashOf(t, "correct-horse"),
	}

	resp, err := svc.LoginDoctor(context.Background(), "doc@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, resp.Role)
	assert.NotEmpty(t, resp.Token)

	assert.NoError(t, svc.Authorize(context.Background(), resp.Token, model.RoleDoctor))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, admins, _, patients := newTestService(t)
	admins.byUsername["root"] = &model.Admin{Username: "root", PasswordHash: hashOf(t, "password1")}
	patients.byEmail["pat@example.com"] = &model.Patient{Email: "pat@example.com", PasswordHash: hashOf(t, "password2")}

	_, err := svc.LoginAdmin(context.Background(), "root", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = svc.LoginPatient(context.Background(), "pat@example.com", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestLoginUnknownUserIndistinguishable(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.LoginDoctor(context.Background(), "nobody@example.com", "whatever1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestAuthorizeRoleMismatch(t *testing.T) {
	svc, _, _, patients := newTestService(t)
	patients.byEmail["pat@example.com"] = &model.Patient{Email: "pat@example.com", PasswordHash: hashOf(t, "password1")}

	resp, err := svc.LoginPatient(context.Background(), "pat@example.com", "password1")
	require.NoError(t, err)

	// Valid token, wrong role: Forbidden, not Unauthorized.
	err = svc.Authorize(context.Background(), resp.Token, model.RoleDoctor)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestAuthorizeInvalidToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Authorize(context.Background(), "not-a-token", model.RoleAdmin)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestResolveProbesPatientFirst(t *testing.T) {
	svc, admins, doctors, patients := newTestService(t)

	// The same identifier exists in every role table; patient wins.
	patientID := uuid.New()
	patients.byEmail["shared@example.com"] = &model.Patient{Base: model.Base{ID: patientID}, Email: "shared@example.com"}
	doctors.byEmail["shared@example.com"] = &model.Doctor{Base: model.Base{ID: uuid.New()}, Email: "shared@example.com"}
	admins.byUsername["shared@example.com"] = &model.Admin{Base: model.Base{ID: uuid.New()}, Username: "shared@example.com"}

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)
	tok, err := tokens.Generate("shared@example.com")
	require.NoError(t, err)

	ref, err := svc.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, ref.Role)
	assert.Equal(t, patientID, ref.ID)
}

func TestResolveUnknownIdentifier(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)
	tok, err := tokens.Generate("ghost@example.com")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), tok)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}
