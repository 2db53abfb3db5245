package models

import "time"

type MedicationStatus string

const (
	MedicationActive MedicationStatus = "active"
	MedicationPaused MedicationStatus = "paused"
)

type Medication struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Name      string           `json:"name" db:"name"`
	Dosage    string           `json:"dosage" db:"dosage"`
	Notes     string           `json:"notes,omitempty" db:"notes"`
	Status    MedicationStatus `json:"status" db:"status"`
	StartDate time.Time        `json:"start_date" db:"start_date"`
	Rule      RecurrenceRule   `json:"recurrence_rule"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// Anchor returns the date the interval cadence is pinned to: the rule's
// active_from when set, otherwise the medication's start date.
func (m Medication) Anchor() time.Time {
	if m.Rule.ActiveFrom != nil {
		return *m.Rule.ActiveFrom
	}
	return m.StartDate
}
