package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

type fakeDoctorRepo struct {
	byID map[uuid.UUID]*model.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{byID: map[uuid.UUID]*model.Doctor{}}
}

func (f *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.byID[d.ID] = d
	return nil
}

func (f *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	return f.byID[id], nil
}

func (f *fakeDoctorRepo) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	for _, d := range f.byID {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	f.byID[d.ID] = d
	return nil
}

func (f *fakeDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeDoctorRepo) List(_ context.Context) ([]*model.Doctor, error) {
	out := make([]*model.Doctor, 0, len(f.byID))
	for _, d := range f.byID {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDoctorRepo) Search(_ context.Context, name, specialty string) ([]*model.Doctor, error) {
	return f.List(context.Background())
}

type fakeAppointmentRepo struct {
	active  []*model.Appointment
	deleted []uuid.UUID
}

func (f *fakeAppointmentRepo) Book(_ context.Context, apt *model.Appointment, _, _ time.Time) error {
	f.active = append(f.active, apt)
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
	out := []*model.Appointment{}
	for _, apt := range f.active {
		if apt.DoctorID != doctorID || apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if apt.AppointmentTime.Before(from) || apt.AppointmentTime.After(to) {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*model.AppointmentView, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) ListForPatient(_ context.Context, patientID uuid.UUID, filters repository.PatientAppointmentFilters) ([]*model.AppointmentView, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) DeleteByDoctor(_ context.Context, doctorID uuid.UUID) error {
	f.deleted = append(f.deleted, doctorID)
	return nil
}

func newTestService() (*Service, *fakeDoctorRepo, *fakeAppointmentRepo) {
	doctors := newFakeDoctorRepo()
	appointments := &fakeAppointmentRepo{}
	svc := NewService(doctors, appointments, security.NewBcryptHasher(bcrypt.MinCost), nil)
	return svc, doctors, appointments
}

func seedDoctor(repo *fakeDoctorRepo, slots ...string) *model.Doctor {
	d := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		Name:           "Dr. Chen",
		Email:          "chen@example.com",
		Specialty:      "cardiology",
		AvailableSlots: pq.StringArray(slots),
	}
	repo.byID[d.ID] = d
	return d
}

func TestAvailabilityAllSlotsFree(t *testing.T) {
	svc, doctors, _ := newTestService()
	d := seedDoctor(doctors, "13:00-14:00", "09:00-10:00", "10:00-11:00")

	free, err := svc.Availability(context.Background(), d.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00", "13:00-14:00"}, free)
}

func TestAvailabilityRemovesBookedSlots(t *testing.T) {
	svc, doctors, appointments := newTestService()
	d := seedDoctor(doctors, "09:00-10:00", "10:00-11:00", "13:00-14:00")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	appointments.active = append(appointments.active, &model.Appointment{
		DoctorID:        d.ID,
		AppointmentTime: day.Add(10 * time.Hour),
		Status:          model.AppointmentStatusScheduled,
	})

	free, err := svc.Availability(context.Background(), d.ID, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00", "13:00-14:00"}, free)
}

func TestAvailabilityCancelledSlotReappears(t *testing.T) {
	svc, doctors, appointments := newTestService()
	d := seedDoctor(doctors, "09:00-10:00", "10:00-11:00")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	apt := &model.Appointment{
		DoctorID:        d.ID,
		AppointmentTime: day.Add(9 * time.Hour),
		Status:          model.AppointmentStatusScheduled,
	}
	appointments.active = append(appointments.active, apt)

	free, err := svc.Availability(context.Background(), d.ID, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00-11:00"}, free)

	apt.Status = model.AppointmentStatusCancelled

	free, err = svc.Availability(context.Background(), d.ID, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00", "10:00-11:00"}, free)
}

func TestAvailabilityOffGridBookingOccupiesNothing(t *testing.T) {
	svc, doctors, appointments := newTestService()
	d := seedDoctor(doctors, "09:00-10:00")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	appointments.active = append(appointments.active, &model.Appointment{
		DoctorID:        d.ID,
		AppointmentTime: day.Add(9*time.Hour + 30*time.Minute),
		Status:          model.AppointmentStatusScheduled,
	})

	free, err := svc.Availability(context.Background(), d.ID, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00"}, free)
}

func TestAvailabilityUnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService()

	free, err := svc.Availability(context.Background(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestAvailabilityIgnoresOtherDays(t *testing.T) {
	svc, doctors, appointments := newTestService()
	d := seedDoctor(doctors, "09:00-10:00")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	appointments.active = append(appointments.active, &model.Appointment{
		DoctorID:        d.ID,
		AppointmentTime: day.AddDate(0, 0, 1).Add(9 * time.Hour),
		Status:          model.AppointmentStatusScheduled,
	})

	free, err := svc.Availability(context.Background(), d.ID, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00"}, free)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc, doctors, _ := newTestService()
	seedDoctor(doctors, "09:00-10:00")

	_, err := svc.Create(context.Background(), &model.CreateDoctorRequest{
		Name:      "Dr. Chen II",
		Email:     "chen@example.com",
		Phone:     "555-0100",
		Specialty: "cardiology",
		Password:  "password1",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestCreateRejectsMalformedSlot(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), &model.CreateDoctorRequest{
		Name:           "Dr. Okafor",
		Email:          "okafor@example.com",
		Phone:          "555-0101",
		Specialty:      "dermatology",
		AvailableSlots: []string{"9am-10am"},
		Password:       "password1",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBadRequest))
}

func TestDeleteRemovesAppointmentsFirst(t *testing.T) {
	svc, doctors, appointments := newTestService()
	d := seedDoctor(doctors, "09:00-10:00")

	require.NoError(t, svc.Delete(context.Background(), d.ID))
	assert.Equal(t, []uuid.UUID{d.ID}, appointments.deleted)
	assert.NotContains(t, doctors.byID, d.ID)
}

func TestFilterByPeriod(t *testing.T) {
	svc, doctors, _ := newTestService()

	morning := seedDoctor(doctors, "09:00-10:00")
	noon := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		Name:           "Dr. Noon",
		Email:          "noon@example.com",
		AvailableSlots: pq.StringArray{"12:00-13:00"},
	}
	doctors.byID[noon.ID] = noon

	am, err := svc.Filter(context.Background(), model.DoctorFilters{Period: "AM"})
	require.NoError(t, err)
	require.Len(t, am, 1)
	assert.Equal(t, morning.ID, am[0].ID)

	// Noon is PM.
	pm, err := svc.Filter(context.Background(), model.DoctorFilters{Period: "pm"})
	require.NoError(t, err)
	require.Len(t, pm, 1)
	assert.Equal(t, noon.ID, pm[0].ID)
}

func TestFilterSkipsMalformedSlots(t *testing.T) {
	svc, doctors, _ := newTestService()

	d := seedDoctor(doctors, "bogus", "14:00-15:00")

	pm, err := svc.Filter(context.Background(), model.DoctorFilters{Period: "PM"})
	require.NoError(t, err)
	require.Len(t, pm, 1)
	assert.Equal(t, d.ID, pm[0].ID)

	am, err := svc.Filter(context.Background(), model.DoctorFilters{Period: "AM"})
	require.NoError(t, err)
	assert.Empty(t, am)
}
