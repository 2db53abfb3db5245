package recurrence

import (
	"time"

	"github.com/evercare/carelink-api/internal/models"
)

// DefaultHorizonDays bounds how far ahead occurrences are generated.
const DefaultHorizonDays = 30

// Occurrence is one reminder-creation request produced by expanding a rule.
type Occurrence struct {
	UserID        string
	SourceType    models.ReminderSource
	ReferenceID   string
	Title         string
	ScheduledTime time.Time
}

// Generator walks a bounded date window and expands a rule into concrete
// occurrences. It performs no deduplication against stored reminders; that
// is the lifecycle manager's job.
type Generator struct {
	HorizonDays int
}

func NewGenerator(horizonDays int) *Generator {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Generator{HorizonDays: horizonDays}
}

// Generate expands rule over [max(midnight(now), activeFrom),
// min(windowStart+horizon, activeUntil)] inclusive. The rule must already be
// validated. Output is sorted ascending by scheduled time and contains no
// duplicate times for the reference.
func (g *Generator) Generate(rule models.RecurrenceRule, userID string, sourceType models.ReminderSource, referenceID, title string, anchor, now time.Time) []Occurrence {
	windowStart := Midnight(now)
	if rule.ActiveFrom != nil && Midnight(*rule.ActiveFrom).After(windowStart) {
		windowStart = Midnight(*rule.ActiveFrom)
	}
	// The walk below is inclusive, so a 30 day horizon spans exactly 30
	// calendar days.
	windowEnd := windowStart.AddDate(0, 0, g.HorizonDays-1)
	if rule.ActiveUntil != nil && Midnight(*rule.ActiveUntil).Before(windowEnd) {
		windowEnd = Midnight(*rule.ActiveUntil)
	}

	var occurrences []Occurrence
	for day := windowStart; !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
		for _, tod := range TimesForDay(rule, day, anchor) {
			hour, minute, err := models.ParseTimeOfDay(tod)
			if err != nil {
				continue
			}
			occurrences = append(occurrences, Occurrence{
				UserID:        userID,
				SourceType:    sourceType,
				ReferenceID:   referenceID,
				Title:         title,
				ScheduledTime: time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()),
			})
		}
	}
	return occurrences
}
