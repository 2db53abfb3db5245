package models

import "time"

type ReminderSource string

const (
	SourceMedication  ReminderSource = "medication"
	SourceAppointment ReminderSource = "appointment"
	SourceHealth      ReminderSource = "health"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderDone    ReminderStatus = "done"
	// ReminderMissed is a read-time view of a pending reminder whose
	// scheduled time has passed. It is never written to storage.
	ReminderMissed ReminderStatus = "missed"
)

type Reminder struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	SourceType    ReminderSource `json:"source_type" db:"source_type"`
	ReferenceID   string         `json:"reference_id" db:"reference_id"`
	Title         string         `json:"title" db:"title"`
	ScheduledTime time.Time      `json:"scheduled_time" db:"scheduled_time"`
	Status        ReminderStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// EffectiveStatus is the single place the missed view is computed. A pending
// reminder whose scheduled time is in the past reads as missed; everything
// else reads as its stored status.
func (r Reminder) EffectiveStatus(now time.Time) ReminderStatus {
	if r.Status == ReminderPending && r.ScheduledTime.Before(now) {
		return ReminderMissed
	}
	return r.Status
}
