package repository

import (
	"context"
	"database/sql"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/pkg/errors"
)

// ErrVersionConflict is returned when an update loses the optimistic version
// check, meaning another writer advanced the notification first.
var ErrVersionConflict = errors.New("notification version conflict")

type CreateNotificationParams struct {
	SourceReminderID string
	Title            string
	Message          string
	Channel          models.DeliveryChannel
	RecipientType    models.RecipientType
	RecipientID      string
}

type NotificationRepository interface {
	// Create inserts the notification in the sent state together with
	// delivery attempt #1 (pending outcome) in a single transaction.
	Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error)
	GetByID(ctx context.Context, notificationID string) (models.Notification, error)
	ListRecent(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	ListByReminder(ctx context.Context, reminderID string) ([]models.Notification, error)
	// Update writes back a mutated notification guarded by its version;
	// returns ErrVersionConflict when the stored version has moved on.
	Update(ctx context.Context, notification models.Notification) (models.Notification, error)
	AppendAttempt(ctx context.Context, attempt models.DeliveryAttempt) (models.DeliveryAttempt, error)
	ResolveAttempt(ctx context.Context, notificationID string, attemptNumber int, outcome models.AttemptOutcome, errorReason *string) error
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, source_reminder_id, title, message, delivery_channel, recipient_type, recipient_id,
	status, sent_at, delivered_at, read_at, acknowledged_at, failure_reason, retry_count, version`

func (r *notificationRepository) Create(ctx context.Context, params CreateNotificationParams) (models.Notification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Notification{}, errors.Wrap(err, "begin notification create")
	}
	defer tx.Rollback()

	const insertNotification = `
		INSERT INTO care.notifications
			(source_reminder_id, title, message, delivery_channel, recipient_type, recipient_id, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + notificationColumns

	notif, err := scanNotification(tx.QueryRowContext(ctx, insertNotification,
		params.SourceReminderID,
		params.Title,
		params.Message,
		params.Channel,
		params.RecipientType,
		params.RecipientID,
		models.NotificationSent,
	))
	if err != nil {
		return models.Notification{}, errors.Wrap(err, "insert notification")
	}

	const insertAttempt = `
		INSERT INTO care.notification_attempts (notification_id, attempt_number, outcome, channel)
		VALUES ($1, 1, $2, $3)
		RETURNING id, notification_id, attempt_number, attempted_at, outcome, channel, error_reason`

	attempt, err := scanAttempt(tx.QueryRowContext(ctx, insertAttempt, notif.ID, models.OutcomePending, params.Channel))
	if err != nil {
		return models.Notification{}, errors.Wrap(err, "insert first delivery attempt")
	}

	if err := tx.Commit(); err != nil {
		return models.Notification{}, errors.Wrap(err, "commit notification create")
	}

	notif.DeliveryAttempts = []models.DeliveryAttempt{attempt}
	return notif, nil
}

func (r *notificationRepository) GetByID(ctx context.Context, notificationID string) (models.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM care.notifications WHERE id = $1`
	notif, err := scanNotification(r.db.QueryRowContext(ctx, query, notificationID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, &models.NotFoundError{Resource: "notification", ID: notificationID}
	}
	if err != nil {
		return models.Notification{}, err
	}

	attempts, err := r.listAttempts(ctx, notif.ID)
	if err != nil {
		return models.Notification{}, err
	}
	notif.DeliveryAttempts = attempts
	return notif, nil
}

func (r *notificationRepository) ListRecent(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	const query = `
		SELECT ` + notificationColumns + `
		FROM care.notifications
		WHERE recipient_id = $1
		ORDER BY sent_at DESC
		LIMIT $2`
	return r.queryNotifications(ctx, query, recipientID, limit)
}

func (r *notificationRepository) ListByReminder(ctx context.Context, reminderID string) ([]models.Notification, error) {
	const query = `
		SELECT ` + notificationColumns + `
		FROM care.notifications
		WHERE source_reminder_id = $1
		ORDER BY sent_at ASC`
	return r.queryNotifications(ctx, query, reminderID)
}

func (r *notificationRepository) Update(ctx context.Context, notification models.Notification) (models.Notification, error) {
	const query = `
		UPDATE care.notifications
		SET status = $3, delivered_at = $4, read_at = $5, acknowledged_at = $6,
		    failure_reason = $7, retry_count = $8, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING ` + notificationColumns

	updated, err := scanNotification(r.db.QueryRowContext(ctx, query,
		notification.ID,
		notification.Version,
		notification.Status,
		notification.DeliveredAt,
		notification.ReadAt,
		notification.AcknowledgedAt,
		notification.FailureReason,
		notification.RetryCount,
	))
	if errors.Is(err, sql.ErrNoRows) {
		// Either the row is gone or another writer bumped the version.
		if _, getErr := r.GetByID(ctx, notification.ID); getErr != nil {
			return models.Notification{}, getErr
		}
		return models.Notification{}, ErrVersionConflict
	}
	if err != nil {
		return models.Notification{}, errors.Wrap(err, "update notification")
	}
	updated.DeliveryAttempts = notification.DeliveryAttempts
	return updated, nil
}

func (r *notificationRepository) AppendAttempt(ctx context.Context, attempt models.DeliveryAttempt) (models.DeliveryAttempt, error) {
	const query = `
		INSERT INTO care.notification_attempts (notification_id, attempt_number, outcome, channel, error_reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, notification_id, attempt_number, attempted_at, outcome, channel, error_reason`
	saved, err := scanAttempt(r.db.QueryRowContext(ctx, query,
		attempt.NotificationID,
		attempt.AttemptNumber,
		attempt.Outcome,
		attempt.Channel,
		attempt.ErrorReason,
	))
	if err != nil {
		return models.DeliveryAttempt{}, errors.Wrap(err, "append delivery attempt")
	}
	return saved, nil
}

func (r *notificationRepository) ResolveAttempt(ctx context.Context, notificationID string, attemptNumber int, outcome models.AttemptOutcome, errorReason *string) error {
	const query = `
		UPDATE care.notification_attempts
		SET outcome = $3, error_reason = $4
		WHERE notification_id = $1 AND attempt_number = $2`
	_, err := r.db.ExecContext(ctx, query, notificationID, attemptNumber, outcome, errorReason)
	return errors.Wrap(err, "resolve delivery attempt")
}

func (r *notificationRepository) listAttempts(ctx context.Context, notificationID string) ([]models.DeliveryAttempt, error) {
	const query = `
		SELECT id, notification_id, attempt_number, attempted_at, outcome, channel, error_reason
		FROM care.notification_attempts
		WHERE notification_id = $1
		ORDER BY attempt_number ASC`
	rows, err := r.db.QueryContext(ctx, query, notificationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.DeliveryAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func (r *notificationRepository) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		notif, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notif)
	}
	return notifications, rows.Err()
}

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Notification, error) {
	var (
		notif          models.Notification
		deliveredAt    sql.NullTime
		readAt         sql.NullTime
		acknowledgedAt sql.NullTime
		failureReason  sql.NullString
	)
	if err := scanner.Scan(
		&notif.ID,
		&notif.SourceReminderID,
		&notif.Title,
		&notif.Message,
		&notif.DeliveryChannel,
		&notif.RecipientType,
		&notif.RecipientID,
		&notif.Status,
		&notif.SentAt,
		&deliveredAt,
		&readAt,
		&acknowledgedAt,
		&failureReason,
		&notif.RetryCount,
		&notif.Version,
	); err != nil {
		return models.Notification{}, err
	}

	if deliveredAt.Valid {
		t := deliveredAt.Time
		notif.DeliveredAt = &t
	}
	if readAt.Valid {
		t := readAt.Time
		notif.ReadAt = &t
	}
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time
		notif.AcknowledgedAt = &t
	}
	if failureReason.Valid {
		reason := failureReason.String
		notif.FailureReason = &reason
	}
	return notif, nil
}

func scanAttempt(scanner interface {
	Scan(dest ...interface{}) error
}) (models.DeliveryAttempt, error) {
	var (
		attempt     models.DeliveryAttempt
		errorReason sql.NullString
	)
	if err := scanner.Scan(
		&attempt.ID,
		&attempt.NotificationID,
		&attempt.AttemptNumber,
		&attempt.AttemptedAt,
		&attempt.Outcome,
		&attempt.Channel,
		&errorReason,
	); err != nil {
		return models.DeliveryAttempt{}, err
	}
	if errorReason.Valid {
		reason := errorReason.String
		attempt.ErrorReason = &reason
	}
	return attempt, nil
}
