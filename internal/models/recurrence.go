package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type RecurrenceKind string

const (
	RecurrenceDaily    RecurrenceKind = "daily"
	RecurrenceWeekly   RecurrenceKind = "weekly"
	RecurrenceInterval RecurrenceKind = "interval"
	RecurrenceAsNeeded RecurrenceKind = "as_needed"
)

// RecurrenceRule describes when a medication's doses recur. It is embedded in
// a Medication and is a read-only input to the occurrence engine.
type RecurrenceRule struct {
	Kind         RecurrenceKind `json:"kind" db:"kind"`
	TimesOfDay   []string       `json:"times_of_day" db:"times_of_day"`
	DaysOfWeek   []int          `json:"days_of_week,omitempty" db:"days_of_week"`
	IntervalDays int            `json:"interval_days,omitempty" db:"interval_days"`
	ActiveFrom   *time.Time     `json:"active_from,omitempty" db:"active_from"`
	ActiveUntil  *time.Time     `json:"active_until,omitempty" db:"active_until"`
}

// Validate checks the rule's structural invariants. It must be called before
// any occurrence generation; a rule that fails validation must never cause
// existing reminders to be cancelled.
func (r RecurrenceRule) Validate() error {
	switch r.Kind {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceInterval, RecurrenceAsNeeded:
	default:
		return &InvalidRuleError{Reason: fmt.Sprintf("unknown recurrence kind %q", r.Kind)}
	}
	if r.Kind != RecurrenceAsNeeded {
		if len(r.TimesOfDay) == 0 {
			return &InvalidRuleError{Reason: "times_of_day must not be empty"}
		}
		for _, t := range r.TimesOfDay {
			if _, _, err := ParseTimeOfDay(t); err != nil {
				return &InvalidRuleError{Reason: fmt.Sprintf("invalid time_of_day %q", t)}
			}
		}
	}
	if r.Kind == RecurrenceWeekly {
		if len(r.DaysOfWeek) == 0 {
			return &InvalidRuleError{Reason: "weekly rule requires days_of_week"}
		}
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				return &InvalidRuleError{Reason: fmt.Sprintf("day_of_week %d out of range", d)}
			}
		}
	}
	if r.Kind == RecurrenceInterval && r.IntervalDays <= 0 {
		return &InvalidRuleError{Reason: "interval rule requires positive interval_days"}
	}
	if r.ActiveFrom != nil && r.ActiveUntil != nil && r.ActiveUntil.Before(*r.ActiveFrom) {
		return &InvalidRuleError{Reason: "active_until precedes active_from"}
	}
	return nil
}

// NormalizedTimes returns the rule's times-of-day deduplicated and sorted
// ascending, the form the evaluator consumes.
func (r RecurrenceRule) NormalizedTimes() []string {
	seen := make(map[string]struct{}, len(r.TimesOfDay))
	var times []string
	for _, t := range r.TimesOfDay {
		t = strings.TrimSpace(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		times = append(times, t)
	}
	sort.Strings(times)
	return times
}

// ParseTimeOfDay parses an "HH:MM" clock value.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time of day %q must be HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
