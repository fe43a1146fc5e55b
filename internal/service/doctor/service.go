package doctor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
	apperrors "github.com/meridianlabs/clinic-api/pkg/errors"
	"github.com/meridianlabs/clinic-api/pkg/metrics"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

const (
	profileCacheTTL  = time.Minute
	listCacheKey     = "doctors:all"
	profileKeyPrefix = "doctor:"
	cacheSweepPeriod = 5 * time.Minute
)

// Service owns doctor management and the availability computation: a
// doctor's free slots for a date are the recurring slot set minus the
// slots occupied by that day's booked appointments.
type Service struct {
	repo         repository.DoctorRepository
	appointments repository.AppointmentRepository
	hasher       security.PasswordHasher
	cache        *gocache.Cache
	metrics      *metrics.Metrics
}

func NewService(
	repo repository.DoctorRepository,
	appointments repository.AppointmentRepository,
	hasher security.PasswordHasher,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		hasher:       hasher,
		cache:        gocache.New(profileCacheTTL, cacheSweepPeriod),
		metrics:      m,
	}
}

// Availability returns the doctor's free slot strings for the given date,
// sorted ascending. An unknown doctor yields an empty result rather than an
// error; calling paths that must distinguish "doctor unknown" resolve the
// doctor themselves before asking for availability.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	if s.metrics != nil {
		timer := prometheus.NewTimer(s.metrics.AvailabilityLatency)
		defer timer.ObserveDuration()
	}

	doctor, err := s.repo.Get(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctor == nil {
		return []string{}, nil
	}

	from, to := dayBounds(date)
	booked, err := s.appointments.ActiveByDoctorInRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	// Occupancy is exact slot-string equality: a booking that doesn't start
	// on a canonical slot boundary occupies nothing recognizable here.
	occupied := make(map[string]struct{}, len(booked))
	for _, apt := range booked {
		occupied[apt.Slot()] = struct{}{}
	}

	free := make([]string, 0, len(doctor.AvailableSlots))
	for _, slot := range doctor.AvailableSlots {
		if _, taken := occupied[slot]; !taken {
			free = append(free, slot)
		}
	}

	// Slot strings are zero-padded, so lexicographic order is
	// chronological order.
	sort.Strings(free)
	return free, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("doctor with this email already exists")
	}

	for _, slot := range req.AvailableSlots {
		if _, err := model.SlotStart(slot); err != nil {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid slot %q", slot), err)
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	doctor := &model.Doctor{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Specialty:      req.Specialty,
		AvailableSlots: pq.StringArray(req.AvailableSlots),
		PasswordHash:   hash,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.invalidate(doctor.ID)
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := s.cache.Get(profileKeyPrefix + id.String()); ok {
		return cached.(*model.Doctor), nil
	}

	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctor == nil {
		return nil, apperrors.NotFound("doctor")
	}

	s.cache.Set(profileKeyPrefix+id.String(), doctor, gocache.DefaultExpiration)
	return doctor, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if doctor == nil {
		return nil, apperrors.NotFound("doctor")
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.AvailableSlots != nil {
		for _, slot := range *req.AvailableSlots {
			if _, err := model.SlotStart(slot); err != nil {
				return nil, apperrors.BadRequest(fmt.Sprintf("invalid slot %q", slot), err)
			}
		}
		doctor.AvailableSlots = pq.StringArray(*req.AvailableSlots)
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.invalidate(id)
	return doctor, nil
}

// Delete removes the doctor and every appointment that references them.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.Internal(err)
	}
	if doctor == nil {
		return apperrors.NotFound("doctor")
	}

	// Appointments reference the doctor row, so they go first.
	if err := s.appointments.DeleteByDoctor(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(err)
	}

	s.invalidate(id)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		return cached.([]*model.Doctor), nil
	}

	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Set(listCacheKey, doctors, gocache.DefaultExpiration)
	return doctors, nil
}

// Filter narrows doctors by partial name, specialty and AM/PM slot
// availability; all criteria are optional.
func (s *Service) Filter(ctx context.Context, filters model.DoctorFilters) ([]*model.Doctor, error) {
	var doctors []*model.Doctor
	if filters.Name == "" && filters.Specialty == "" {
		all, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		doctors = all
	} else {
		found, err := s.repo.Search(ctx, filters.Name, filters.Specialty)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		doctors = found
	}

	if filters.Period != "" {
		doctors = filterByPeriod(doctors, filters.Period)
	}
	return doctors, nil
}

// filterByPeriod keeps doctors with at least one slot starting in the
// given half of the day. Noon counts as PM. Malformed slot strings are
// skipped rather than failing the whole filter.
func filterByPeriod(doctors []*model.Doctor, period string) []*model.Doctor {
	wantAM := strings.EqualFold(period, "AM")

	filtered := make([]*model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		for _, slot := range d.AvailableSlots {
			start, err := model.SlotStart(slot)
			if err != nil {
				continue
			}
			isAM := start.Hour() < 12
			if isAM == wantAM {
				filtered = append(filtered, d)
				break
			}
		}
	}
	return filtered
}

func (s *Service) invalidate(id uuid.UUID) {
	s.cache.Delete(profileKeyPrefix + id.String())
	s.cache.Delete(listCacheKey)
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}
