package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercare/carelink-api/internal/models"
)

func setupReminderRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, ReminderRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewReminderRepository(db)
}

func reminderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "source_type", "reference_id", "title",
		"scheduled_time", "status", "created_at", "updated_at",
	})
}

func TestReminderCreateBatch(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	scheduled := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO care\.reminders`).
		WithArgs("user-1", "medication", "med-1", "Aspirin", scheduled, models.ReminderPending).
		WillReturnRows(reminderRows().
			AddRow("rem-1", "user-1", "medication", "med-1", "Aspirin", scheduled, "pending", now, now))
	mock.ExpectQuery(`INSERT INTO care\.reminders`).
		WithArgs("user-1", "medication", "med-1", "Aspirin", scheduled.Add(12*time.Hour), models.ReminderPending).
		WillReturnRows(reminderRows().
			AddRow("rem-2", "user-1", "medication", "med-1", "Aspirin", scheduled.Add(12*time.Hour), "pending", now, now))
	mock.ExpectCommit()

	created, err := repo.CreateBatch(context.Background(), []models.Reminder{
		{UserID: "user-1", SourceType: models.SourceMedication, ReferenceID: "med-1", Title: "Aspirin", ScheduledTime: scheduled},
		{UserID: "user-1", SourceType: models.SourceMedication, ReferenceID: "med-1", Title: "Aspirin", ScheduledTime: scheduled.Add(12 * time.Hour)},
	})

	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "rem-1", created[0].ID)
	assert.Equal(t, models.ReminderPending, created[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderCreateBatch_Empty(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	created, err := repo.CreateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderGetByID_NotFound(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM care\.reminders WHERE id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")

	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "reminder", notFound.Resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderListDueUnnotified(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	now := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`LEFT JOIN care\.notifications`).
		WithArgs(now, 100).
		WillReturnRows(reminderRows().
			AddRow("rem-1", "user-1", "medication", "med-1", "Aspirin", now.Add(-time.Hour), "pending", now, now))

	due, err := repo.ListDueUnnotified(context.Background(), now, 0)

	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "rem-1", due[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderDeleteFuturePending(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	now := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM care\.reminders`).
		WithArgs("med-1", now).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := repo.DeleteFuturePending(context.Background(), "med-1", now)

	require.NoError(t, err)
	assert.EqualValues(t, 5, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderUpdateStatus(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE care\.reminders`).
		WithArgs("rem-1", models.ReminderDone).
		WillReturnRows(reminderRows().
			AddRow("rem-1", "user-1", "medication", "med-1", "Aspirin", now, "done", now, now))

	updated, err := repo.UpdateStatus(context.Background(), "rem-1", models.ReminderDone)

	require.NoError(t, err)
	assert.Equal(t, models.ReminderDone, updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderAdherenceStats(t *testing.T) {
	db, mock, repo := setupReminderRepo(t)
	defer db.Close()

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	now := from.AddDate(0, 0, 3)

	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs("user-1", from, to, now).
		WillReturnRows(sqlmock.NewRows([]string{"done", "missed", "upcoming"}).AddRow(10, 2, 8))

	stats, err := repo.AdherenceStats(context.Background(), "user-1", from, to, now)

	require.NoError(t, err)
	assert.Equal(t, models.AdherenceStats{Done: 10, Missed: 2, Upcoming: 8}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
