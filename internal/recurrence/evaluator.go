// Package recurrence expands medication recurrence rules into concrete
// occurrence times over a bounded calendar window. Everything here is pure:
// callers supply the clock and persistence happens elsewhere.
package recurrence

import (
	"math"
	"time"

	"github.com/evercare/carelink-api/internal/models"
)

// IsDoseDay reports whether day is a dose day under rule. The anchor pins the
// interval cadence to when the medication began rather than a fixed epoch.
// Days outside the rule's active window are never dose days.
func IsDoseDay(rule models.RecurrenceRule, day, anchor time.Time) bool {
	day = Midnight(day)
	if rule.ActiveFrom != nil && day.Before(Midnight(*rule.ActiveFrom)) {
		return false
	}
	if rule.ActiveUntil != nil && day.After(Midnight(*rule.ActiveUntil)) {
		return false
	}

	switch rule.Kind {
	case models.RecurrenceDaily:
		return true
	case models.RecurrenceWeekly:
		weekday := int(day.Weekday())
		for _, d := range rule.DaysOfWeek {
			if d == weekday {
				return true
			}
		}
		return false
	case models.RecurrenceInterval:
		if rule.IntervalDays <= 0 {
			return false
		}
		offset := daysBetween(Midnight(anchor), day)
		return offset >= 0 && offset%rule.IntervalDays == 0
	default:
		// As-needed rules never schedule occurrences.
		return false
	}
}

// TimesForDay returns the times-of-day that apply on a dose day,
// deduplicated and sorted ascending. Empty when day is not a dose day.
func TimesForDay(rule models.RecurrenceRule, day, anchor time.Time) []string {
	if !IsDoseDay(rule, day, anchor) {
		return nil
	}
	return rule.NormalizedTimes()
}

// Midnight truncates t to local midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b, both at midnight.
// Computed from date arithmetic so DST transitions cannot skew the count.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24.0))
}
