package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercare/carelink-api/internal/models"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestIsDoseDay_Daily(t *testing.T) {
	rule := models.RecurrenceRule{
		Kind:       models.RecurrenceDaily,
		TimesOfDay: []string{"08:00"},
	}
	anchor := date(2024, time.January, 1)

	assert.True(t, IsDoseDay(rule, date(2024, time.January, 1), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 15), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.June, 30), anchor))
}

func TestIsDoseDay_DailyOutsideActiveWindow(t *testing.T) {
	rule := models.RecurrenceRule{
		Kind:        models.RecurrenceDaily,
		TimesOfDay:  []string{"08:00"},
		ActiveFrom:  timePtr(date(2024, time.January, 10)),
		ActiveUntil: timePtr(date(2024, time.January, 20)),
	}
	anchor := date(2024, time.January, 10)

	assert.False(t, IsDoseDay(rule, date(2024, time.January, 9), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 10), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 20), anchor))
	assert.False(t, IsDoseDay(rule, date(2024, time.January, 21), anchor))
}

func TestIsDoseDay_Weekly(t *testing.T) {
	// 2024-01-01 is a Monday.
	rule := models.RecurrenceRule{
		Kind:       models.RecurrenceWeekly,
		TimesOfDay: []string{"09:00"},
		DaysOfWeek: []int{1, 3}, // Monday, Wednesday
	}
	anchor := date(2024, time.January, 1)

	assert.True(t, IsDoseDay(rule, date(2024, time.January, 1), anchor))  // Mon
	assert.False(t, IsDoseDay(rule, date(2024, time.January, 2), anchor)) // Tue
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 3), anchor))  // Wed
	assert.False(t, IsDoseDay(rule, date(2024, time.January, 7), anchor)) // Sun
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 8), anchor))  // next Mon
}

func TestIsDoseDay_IntervalAnchoredToStart(t *testing.T) {
	rule := models.RecurrenceRule{
		Kind:         models.RecurrenceInterval,
		TimesOfDay:   []string{"08:00"},
		IntervalDays: 2,
	}
	anchor := date(2024, time.January, 1)

	assert.True(t, IsDoseDay(rule, date(2024, time.January, 1), anchor))
	assert.False(t, IsDoseDay(rule, date(2024, time.January, 2), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 3), anchor))
	assert.False(t, IsDoseDay(rule, date(2024, time.January, 4), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.January, 5), anchor))

	// Days before the anchor are never dose days.
	assert.False(t, IsDoseDay(rule, date(2023, time.December, 30), anchor))
	assert.False(t, IsDoseDay(rule, date(2023, time.December, 31), anchor))
}

func TestIsDoseDay_IntervalLongCadence(t *testing.T) {
	rule := models.RecurrenceRule{
		Kind:         models.RecurrenceInterval,
		TimesOfDay:   []string{"10:00"},
		IntervalDays: 7,
	}
	anchor := date(2024, time.March, 5)

	assert.True(t, IsDoseDay(rule, date(2024, time.March, 5), anchor))
	assert.False(t, IsDoseDay(rule, date(2024, time.March, 11), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.March, 12), anchor))
	assert.True(t, IsDoseDay(rule, date(2024, time.April, 2), anchor))
}

func TestIsDoseDay_AsNeededNever(t *testing.T) {
	rule := models.RecurrenceRule{Kind: models.RecurrenceAsNeeded}
	anchor := date(2024, time.January, 1)

	for day := 0; day < 60; day++ {
		assert.False(t, IsDoseDay(rule, anchor.AddDate(0, 0, day), anchor))
	}
}

func TestTimesForDay_DedupedAndSorted(t *testing.T) {
	rule := models.RecurrenceRule{
		Kind:       models.RecurrenceDaily,
		TimesOfDay: []string{"20:00", "08:00", "20:00", "12:30"},
	}
	anchor := date(2024, time.January, 1)

	times := TimesForDay(rule, date(2024, time.January, 5), anchor)
	require.Equal(t, []string{"08:00", "12:30", "20:00"}, times)
}

func TestTimesForDay_EmptyOffDoseDay(t *testing.T) {
	rule := models.RecurrenceRule{
		Kind:         models.RecurrenceInterval,
		TimesOfDay:   []string{"08:00"},
		IntervalDays: 3,
	}
	anchor := date(2024, time.January, 1)

	assert.Nil(t, TimesForDay(rule, date(2024, time.January, 2), anchor))
	assert.NotEmpty(t, TimesForDay(rule, date(2024, time.January, 4), anchor))
}
