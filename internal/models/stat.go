package models

// AdherenceStats summarizes a user's reminders over a date range for the
// dashboard consumers. Missed uses the same read-time view as
// Reminder.EffectiveStatus.
type AdherenceStats struct {
	Done     int `json:"done"`
	Missed   int `json:"missed"`
	Upcoming int `json:"upcoming"`
}
