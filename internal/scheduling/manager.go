// Package scheduling owns the reminder collection: it expands recurrence
// rules into stored reminders, keeps them synchronized as their source
// entities change, and exposes completion and snooze operations.
package scheduling

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/recurrence"
	"github.com/evercare/carelink-api/internal/repository"
)

type Manager interface {
	OnMedicationCreated(ctx context.Context, medication models.Medication) ([]models.Reminder, error)
	OnMedicationUpdated(ctx context.Context, medication models.Medication) ([]models.Reminder, error)
	OnMedicationPaused(ctx context.Context, medicationID string) (int64, error)
	OnMedicationResumed(ctx context.Context, medication models.Medication) ([]models.Reminder, error)
	OnMedicationDeleted(ctx context.Context, medicationID string) (int64, error)
	OnAppointmentScheduled(ctx context.Context, appointment models.Appointment) ([]models.Reminder, error)
	OnAppointmentCancelled(ctx context.Context, appointmentID string) (int64, error)
	MarkDone(ctx context.Context, reminderID string) (models.Reminder, error)
	Snooze(ctx context.Context, reminderID string, minutes int) (models.Reminder, error)
}

type manager struct {
	reminders repository.ReminderRepository
	generator *recurrence.Generator
	logger    zerolog.Logger
	now       func() time.Time
}

func NewManager(reminders repository.ReminderRepository, generator *recurrence.Generator, logger zerolog.Logger) Manager {
	return &manager{
		reminders: reminders,
		generator: generator,
		logger:    logger.With().Str("component", "reminder_manager").Logger(),
		now:       time.Now,
	}
}

func (m *manager) OnMedicationCreated(ctx context.Context, medication models.Medication) ([]models.Reminder, error) {
	if err := medication.Rule.Validate(); err != nil {
		return nil, err
	}
	if medication.Status != models.MedicationActive {
		return nil, nil
	}
	return m.regenerate(ctx, medication)
}

// OnMedicationUpdated is cancel-then-regenerate. The new rule is validated
// before any cancellation so an invalid edit cannot leave the medication
// with zero reminders. Past and done reminders are never touched; a snoozed
// future reminder is wiped with the rest and recreated at its rule-implied
// time.
func (m *manager) OnMedicationUpdated(ctx context.Context, medication models.Medication) ([]models.Reminder, error) {
	if err := medication.Rule.Validate(); err != nil {
		return nil, err
	}

	cancelled, err := m.reminders.DeleteFuturePending(ctx, medication.ID, m.now())
	if err != nil {
		return nil, err
	}
	m.logger.Debug().
		Str("medication_id", medication.ID).
		Int64("cancelled", cancelled).
		Msg("cancelled stale future reminders")

	if medication.Status != models.MedicationActive {
		return nil, nil
	}
	return m.regenerate(ctx, medication)
}

func (m *manager) OnMedicationPaused(ctx context.Context, medicationID string) (int64, error) {
	cancelled, err := m.reminders.DeleteFuturePending(ctx, medicationID, m.now())
	if err != nil {
		return 0, err
	}
	m.logger.Info().
		Str("medication_id", medicationID).
		Int64("cancelled", cancelled).
		Msg("medication paused")
	return cancelled, nil
}

func (m *manager) OnMedicationResumed(ctx context.Context, medication models.Medication) ([]models.Reminder, error) {
	return m.OnMedicationUpdated(ctx, medication)
}

func (m *manager) OnMedicationDeleted(ctx context.Context, medicationID string) (int64, error) {
	cancelled, err := m.reminders.DeleteFuturePending(ctx, medicationID, m.now())
	if err != nil {
		return 0, err
	}
	m.logger.Info().
		Str("medication_id", medicationID).
		Int64("cancelled", cancelled).
		Msg("medication deleted, history preserved")
	return cancelled, nil
}

// OnAppointmentScheduled keeps appointments on the same cancel-then-create
// contract as medications; the expansion degenerates to one occurrence at
// the appointment time.
func (m *manager) OnAppointmentScheduled(ctx context.Context, appointment models.Appointment) ([]models.Reminder, error) {
	now := m.now()
	if _, err := m.reminders.DeleteFuturePending(ctx, appointment.ID, now); err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentScheduled || !appointment.ScheduledAt.After(now) {
		return nil, nil
	}
	return m.reminders.CreateBatch(ctx, []models.Reminder{{
		UserID:        appointment.UserID,
		SourceType:    models.SourceAppointment,
		ReferenceID:   appointment.ID,
		Title:         appointment.Title,
		ScheduledTime: appointment.ScheduledAt,
	}})
}

func (m *manager) OnAppointmentCancelled(ctx context.Context, appointmentID string) (int64, error) {
	return m.reminders.DeleteFuturePending(ctx, appointmentID, m.now())
}

// MarkDone transitions a pending reminder to done. Marking an already done
// reminder is a no-op returning the current state.
func (m *manager) MarkDone(ctx context.Context, reminderID string) (models.Reminder, error) {
	reminder, err := m.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return models.Reminder{}, err
	}
	if reminder.Status == models.ReminderDone {
		return reminder, nil
	}
	return m.reminders.UpdateStatus(ctx, reminderID, models.ReminderDone)
}

// Snooze advances a pending reminder's scheduled time by the given minutes.
func (m *manager) Snooze(ctx context.Context, reminderID string, minutes int) (models.Reminder, error) {
	if minutes <= 0 {
		return models.Reminder{}, &models.InvalidStateError{Resource: "reminder", ID: reminderID, Reason: "snooze minutes must be positive"}
	}
	reminder, err := m.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return models.Reminder{}, err
	}
	if reminder.Status != models.ReminderPending {
		return models.Reminder{}, &models.InvalidStateError{Resource: "reminder", ID: reminderID, Reason: "only pending reminders can be snoozed"}
	}
	return m.reminders.Reschedule(ctx, reminderID, reminder.ScheduledTime.Add(time.Duration(minutes)*time.Minute))
}

func (m *manager) regenerate(ctx context.Context, medication models.Medication) ([]models.Reminder, error) {
	occurrences := m.generator.Generate(
		medication.Rule,
		medication.UserID,
		models.SourceMedication,
		medication.ID,
		medication.Name,
		medication.Anchor(),
		m.now(),
	)
	if len(occurrences) == 0 {
		return nil, nil
	}

	reminders := make([]models.Reminder, 0, len(occurrences))
	for _, occ := range occurrences {
		reminders = append(reminders, models.Reminder{
			UserID:        occ.UserID,
			SourceType:    occ.SourceType,
			ReferenceID:   occ.ReferenceID,
			Title:         occ.Title,
			ScheduledTime: occ.ScheduledTime,
		})
	}

	created, err := m.reminders.CreateBatch(ctx, reminders)
	if err != nil {
		return nil, err
	}
	m.logger.Info().
		Str("medication_id", medication.ID).
		Int("reminders", len(created)).
		Msg("generated reminder window")
	return created, nil
}
