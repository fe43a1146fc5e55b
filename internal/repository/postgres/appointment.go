package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/meridianlabs/clinic-api/internal/model"
	"github.com/meridianlabs/clinic-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Book runs the conflict check and the insert in one transaction. The
// doctor row is locked FOR UPDATE first, which serializes concurrent
// bookings for the same doctor: two racing requests for an overlapping
// window cannot both pass the existence check.
func (r *appointmentRepository) Book(ctx context.Context, apt *model.Appointment, windowStart, windowEnd time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	var doctorID uuid.UUID
	err = tx.GetContext(ctx, &doctorID, `SELECT id FROM doctors WHERE id = $1 FOR UPDATE`, apt.DoctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("doctor %s vanished before booking", apt.DoctorID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock doctor row: %w", err)
	}

	var conflict bool
	err = tx.GetContext(ctx, &conflict, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND status <> $2
			AND appointment_time BETWEEN $3 AND $4
		)
	`, apt.DoctorID, model.AppointmentStatusCancelled, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to check booking conflict: %w", err)
	}
	if conflict {
		return repository.ErrConflict
	}

	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (
			id, doctor_id, patient_id, appointment_time, status, reason,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		apt.ID,
		apt.DoctorID,
		apt.PatientID,
		apt.AppointmentTime,
		apt.Status,
		apt.Reason,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_id, appointment_time, status, reason,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET appointment_time = $1, status = $2, reason = $3, updated_at = $4
		WHERE id = $5
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.AppointmentTime,
		apt.Status,
		apt.Reason,
		apt.UpdatedAt,
		apt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3
	`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (r *appointmentRepository) ActiveByDoctorInRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_id, appointment_time, status, reason,
			   created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		AND status <> $2
		AND appointment_time BETWEEN $3 AND $4
		ORDER BY appointment_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, doctorID, model.AppointmentStatusCancelled, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time, patientName string) ([]*model.AppointmentView, error) {
	query := `
		SELECT a.id, a.doctor_id, d.name AS doctor_name,
			   a.patient_id, p.name AS patient_name, p.email AS patient_email,
			   p.phone AS patient_phone,
			   a.appointment_time, a.status, a.reason
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		AND a.appointment_time BETWEEN $2 AND $3
	`
	args := []interface{}{doctorID, from, to}

	if patientName != "" {
		query += " AND p.name ILIKE $4"
		args = append(args, "%"+patientName+"%")
	}

	query += " ORDER BY a.appointment_time ASC"

	var views []*model.AppointmentView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments for doctor: %w", err)
	}
	return views, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, filters repository.PatientAppointmentFilters) ([]*model.AppointmentView, error) {
	query := `
		SELECT a.id, a.doctor_id, d.name AS doctor_name,
			   a.patient_id, p.name AS patient_name, p.email AS patient_email,
			   p.phone AS patient_phone,
			   a.appointment_time, a.status, a.reason
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1
	`
	args := []interface{}{patientID}
	argCount := 2

	if filters.DoctorName != "" {
		query += fmt.Sprintf(" AND d.name ILIKE $%d", argCount)
		args = append(args, "%"+filters.DoctorName+"%")
		argCount++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}

	query += " ORDER BY a.appointment_time ASC"

	var views []*model.AppointmentView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments for patient: %w", err)
	}
	return views, nil
}

func (r *appointmentRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return fmt.Errorf("failed to delete appointments for doctor: %w", err)
	}
	return nil
}
