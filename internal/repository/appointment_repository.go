package repository

import (
	"context"
	"database/sql"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/pkg/errors"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment models.Appointment) (models.Appointment, error)
	GetByID(ctx context.Context, appointmentID string) (models.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Appointment, error)
	Update(ctx context.Context, appointment models.Appointment) (models.Appointment, error)
	Cancel(ctx context.Context, appointmentID string) (models.Appointment, error)
}

type appointmentRepository struct {
	db *sql.DB
}

func NewAppointmentRepository(db *sql.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

const appointmentColumns = `id, user_id, title, location, scheduled_at, status, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment models.Appointment) (models.Appointment, error) {
	const query = `
		INSERT INTO care.appointments (user_id, title, location, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + appointmentColumns
	saved, err := scanAppointment(r.db.QueryRowContext(ctx, query,
		appointment.UserID,
		appointment.Title,
		appointment.Location,
		appointment.ScheduledAt,
		models.AppointmentScheduled,
	))
	if err != nil {
		return models.Appointment{}, errors.Wrap(err, "insert appointment")
	}
	return saved, nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, appointmentID string) (models.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM care.appointments WHERE id = $1`
	appointment, err := scanAppointment(r.db.QueryRowContext(ctx, query, appointmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Appointment{}, &models.NotFoundError{Resource: "appointment", ID: appointmentID}
	}
	return appointment, err
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	const query = `
		SELECT ` + appointmentColumns + `
		FROM care.appointments
		WHERE user_id = $1
		ORDER BY scheduled_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepository) Update(ctx context.Context, appointment models.Appointment) (models.Appointment, error) {
	const query = `
		UPDATE care.appointments
		SET title = $2, location = $3, scheduled_at = $4, status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	updated, err := scanAppointment(r.db.QueryRowContext(ctx, query,
		appointment.ID,
		appointment.Title,
		appointment.Location,
		appointment.ScheduledAt,
		appointment.Status,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Appointment{}, &models.NotFoundError{Resource: "appointment", ID: appointment.ID}
	}
	return updated, err
}

func (r *appointmentRepository) Cancel(ctx context.Context, appointmentID string) (models.Appointment, error) {
	const query = `
		UPDATE care.appointments
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	cancelled, err := scanAppointment(r.db.QueryRowContext(ctx, query, appointmentID, models.AppointmentCancelled))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Appointment{}, &models.NotFoundError{Resource: "appointment", ID: appointmentID}
	}
	return cancelled, err
}

func scanAppointment(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Appointment, error) {
	var appointment models.Appointment
	err := scanner.Scan(
		&appointment.ID,
		&appointment.UserID,
		&appointment.Title,
		&appointment.Location,
		&appointment.ScheduledAt,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	return appointment, err
}
