package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/pkg/errors"
)

type ReminderRepository interface {
	CreateBatch(ctx context.Context, reminders []models.Reminder) ([]models.Reminder, error)
	GetByID(ctx context.Context, reminderID string) (models.Reminder, error)
	ListByReference(ctx context.Context, referenceID string) ([]models.Reminder, error)
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]models.Reminder, error)
	// ListDueUnnotified returns pending reminders whose scheduled time has
	// arrived and for which no notification exists yet.
	ListDueUnnotified(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	// DeleteFuturePending removes pending reminders for a reference whose
	// scheduled time is after now. Done and past reminders are never touched.
	DeleteFuturePending(ctx context.Context, referenceID string, now time.Time) (int64, error)
	UpdateStatus(ctx context.Context, reminderID string, status models.ReminderStatus) (models.Reminder, error)
	Reschedule(ctx context.Context, reminderID string, scheduledTime time.Time) (models.Reminder, error)
	AdherenceStats(ctx context.Context, userID string, from, to, now time.Time) (models.AdherenceStats, error)
}

type reminderRepository struct {
	db *sql.DB
}

func NewReminderRepository(db *sql.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

const reminderColumns = `id, user_id, source_type, reference_id, title, scheduled_time, status, created_at, updated_at`

func (r *reminderRepository) CreateBatch(ctx context.Context, reminders []models.Reminder) ([]models.Reminder, error) {
	if len(reminders) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin reminder batch")
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO care.reminders (user_id, source_type, reference_id, title, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reminderColumns

	created := make([]models.Reminder, 0, len(reminders))
	for _, reminder := range reminders {
		row := tx.QueryRowContext(ctx, query,
			reminder.UserID,
			reminder.SourceType,
			reminder.ReferenceID,
			reminder.Title,
			reminder.ScheduledTime,
			models.ReminderPending,
		)
		saved, err := scanReminder(row)
		if err != nil {
			return nil, errors.Wrap(err, "insert reminder")
		}
		created = append(created, saved)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit reminder batch")
	}
	return created, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, reminderID string) (models.Reminder, error) {
	const query = `SELECT ` + reminderColumns + ` FROM care.reminders WHERE id = $1`
	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, reminderID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, &models.NotFoundError{Resource: "reminder", ID: reminderID}
	}
	return reminder, err
}

func (r *reminderRepository) ListByReference(ctx context.Context, referenceID string) ([]models.Reminder, error) {
	const query = `
		SELECT ` + reminderColumns + `
		FROM care.reminders
		WHERE reference_id = $1
		ORDER BY scheduled_time ASC`
	return r.queryReminders(ctx, query, referenceID)
}

func (r *reminderRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]models.Reminder, error) {
	const query = `
		SELECT ` + reminderColumns + `
		FROM care.reminders
		WHERE user_id = $1 AND scheduled_time >= $2 AND scheduled_time <= $3
		ORDER BY scheduled_time ASC`
	return r.queryReminders(ctx, query, userID, from, to)
}

func (r *reminderRepository) ListDueUnnotified(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `
		SELECT r.id, r.user_id, r.source_type, r.reference_id, r.title, r.scheduled_time, r.status, r.created_at, r.updated_at
		FROM care.reminders r
		LEFT JOIN care.notifications n ON n.source_reminder_id = r.id
		WHERE r.status = 'pending' AND r.scheduled_time <= $1 AND n.id IS NULL
		ORDER BY r.scheduled_time ASC
		LIMIT $2`
	return r.queryReminders(ctx, query, now, limit)
}

func (r *reminderRepository) DeleteFuturePending(ctx context.Context, referenceID string, now time.Time) (int64, error) {
	const query = `
		DELETE FROM care.reminders
		WHERE reference_id = $1 AND status = 'pending' AND scheduled_time > $2`
	result, err := r.db.ExecContext(ctx, query, referenceID, now)
	if err != nil {
		return 0, errors.Wrap(err, "delete future pending reminders")
	}
	return result.RowsAffected()
}

func (r *reminderRepository) UpdateStatus(ctx context.Context, reminderID string, status models.ReminderStatus) (models.Reminder, error) {
	const query = `
		UPDATE care.reminders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reminderColumns
	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, reminderID, status))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, &models.NotFoundError{Resource: "reminder", ID: reminderID}
	}
	return reminder, err
}

func (r *reminderRepository) Reschedule(ctx context.Context, reminderID string, scheduledTime time.Time) (models.Reminder, error) {
	const query = `
		UPDATE care.reminders
		SET scheduled_time = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reminderColumns
	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, reminderID, scheduledTime))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reminder{}, &models.NotFoundError{Resource: "reminder", ID: reminderID}
	}
	return reminder, err
}

func (r *reminderRepository) AdherenceStats(ctx context.Context, userID string, from, to, now time.Time) (models.AdherenceStats, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'done'),
			COUNT(*) FILTER (WHERE status = 'pending' AND scheduled_time < $4),
			COUNT(*) FILTER (WHERE status = 'pending' AND scheduled_time >= $4)
		FROM care.reminders
		WHERE user_id = $1 AND scheduled_time >= $2 AND scheduled_time <= $3`
	var stats models.AdherenceStats
	err := r.db.QueryRowContext(ctx, query, userID, from, to, now).Scan(&stats.Done, &stats.Missed, &stats.Upcoming)
	if err != nil {
		return models.AdherenceStats{}, errors.Wrap(err, "adherence stats")
	}
	return stats, nil
}

func (r *reminderRepository) queryReminders(ctx context.Context, query string, args ...interface{}) ([]models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func scanReminder(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Reminder, error) {
	var reminder models.Reminder
	err := scanner.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.SourceType,
		&reminder.ReferenceID,
		&reminder.Title,
		&reminder.ScheduledTime,
		&reminder.Status,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	return reminder, err
}
