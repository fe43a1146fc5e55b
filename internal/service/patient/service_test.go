package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	"github.com/meridianlabs/clinic-api/internal/service/token"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

type fakePatientRepo struct {
	byID map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{byID: map[uuid.UUID]*model.Patient{}}
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.byID[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	return f.byID[id], nil
}

func (f *fakePatientRepo) GetByEmail(_ context.Context, email string) (*model.Patient, error) {
	for _, p := range f.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePatientRepo) GetByEmailOrPhone(_ context.Context, email, phone string) (*model.Patient, error) {
	for _, p := range f.byID {
		if p.Email == email || p.Phone == phone {
			return p, nil
		}
	}
	return nil, nil
}

type fakeAppointmentRepo struct {
	lastPatientID uuid.UUID
	lastFilters   repository.PatientAppointmentFilters
	views         []*model.AppointmentView
}

func (f *fakeAppointmentRepo) Book(_ context.Context, apt *model.Appointment, windowStart, windowEnd time.Time) error {
	return nil
}
func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error { return nil }
func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	return nil
}
func (f *fakeAppointmentRepo) ActiveByDoctorInRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointmentRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*model.AppointmentView, error) {
	return nil, nil
}
func (f *fakeAppointmentRepo) ListForPatient(_ context.Context, patientID uuid.UUID, filters repository.PatientAppointmentFilters) ([]*model.AppointmentView, error) {
	f.lastPatientID = patientID
	f.lastFilters = filters
	return f.views, nil
}
func (f *fakeAppointmentRepo) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *fakePatientRepo, *fakeAppointmentRepo, *token.Service) {
	t.Helper()

	tokens, err := token.NewService("test-secret")
	require.NoError(t, err)

	patients := newFakePatientRepo()
	appointments := &fakeAppointmentRepo{}
	svc := NewService(patients, appointments, tokens, security.NewBcryptHasher(bcrypt.MinCost))
	return svc, patients, appointments, tokens
}

func TestRegister(t *testing.T) {
	svc, patients, _, _ := newTestService(t)

	p, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name:     "Ann Walker",
		Email:    "ann@example.com",
		Phone:    "555-0100",
		Address:  "12 Elm Street",
		Password: "password1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Ann Walker", p.Name)
	assert.Equal(t, "12 Elm Street", p.Address)
	assert.NotEmpty(t, p.PasswordHash)
	assert.NotEqual(t, "password1", p.PasswordHash)
	assert.Contains(t, patients.byID, p.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ann", Email: "ann@example.com", Phone: "555-0100", Password: "password1",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Other Ann", Email: "ann@example.com", Phone: "555-0199", Password: "password2",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ann", Email: "ann@example.com", Phone: "555-0100", Password: "password1",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ben", Email: "ben@example.com", Phone: "555-0100", Password: "password2",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestProfileFromToken(t *testing.T) {
	svc, _, _, tokens := newTestService(t)

	created, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ann", Email: "ann@example.com", Phone: "555-0100", Password: "password1",
	})
	require.NoError(t, err)

	tok, err := tokens.Generate("ann@example.com")
	require.NoError(t, err)

	p, err := svc.Profile(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID)
}

func TestProfileUnknownToken(t *testing.T) {
	svc, _, _, tokens := newTestService(t)

	tok, err := tokens.Generate("ghost@example.com")
	require.NoError(t, err)

	_, err = svc.Profile(context.Background(), tok)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestAppointmentsScopedToCaller(t *testing.T) {
	svc, _, appointments, tokens := newTestService(t)

	created, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ann", Email: "ann@example.com", Phone: "555-0100", Password: "password1",
	})
	require.NoError(t, err)

	tok, err := tokens.Generate("ann@example.com")
	require.NoError(t, err)

	_, err = svc.Appointments(context.Background(), tok, "", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, appointments.lastPatientID)
	assert.Nil(t, appointments.lastFilters.Status)
	assert.Empty(t, appointments.lastFilters.DoctorName)
}

func TestAppointmentsConditionFilters(t *testing.T) {
	svc, _, appointments, tokens := newTestService(t)

	_, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ann", Email: "ann@example.com", Phone: "555-0100", Password: "password1",
	})
	require.NoError(t, err)

	tok, err := tokens.Generate("ann@example.com")
	require.NoError(t, err)

	_, err = svc.Appointments(context.Background(), tok, "future", "Chen")
	require.NoError(t, err)
	require.NotNil(t, appointments.lastFilters.Status)
	assert.Equal(t, model.AppointmentStatusScheduled, *appointments.lastFilters.Status)
	assert.Equal(t, "Chen", appointments.lastFilters.DoctorName)

	_, err = svc.Appointments(context.Background(), tok, "past", "")
	require.NoError(t, err)
	require.NotNil(t, appointments.lastFilters.Status)
	assert.Equal(t, model.AppointmentStatusCompleted, *appointments.lastFilters.Status)
}

func TestAppointmentsRejectsBadCondition(t *testing.T) {
	svc, _, _, tokens := newTestService(t)

	_, err := svc.Register(context.Background(), &model.RegisterPatientRequest{
		Name: "Ann", Email: "ann@example.com", Phone: "555-0100", Password: "password1",
	})
	require.NoError(t, err)

	tok, err := tokens.Generate("ann@example.com")
	require.NoError(t, err)

	_, err = svc.Appointments(context.Background(), tok, "yesterday", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
}
