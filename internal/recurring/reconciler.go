// Package recurring computes which recurring-rule occurrences fell due in
// the interval since a session last checked. The computation is pure; the
// caller is responsible for applying the emission and advancing the
// checkpoint so the same interval is never credited twice.
package recurring

import (
	"time"

	"github.com/pote-app/pote-backend/internal/domain"
)

// Occurrence pairs a rule with the calendar day it fell due.
type Occurrence struct {
	Rule domain.RecurringRule
	Date time.Time
}

// DueOccurrences walks every calendar day strictly after lastCheckedAt up to
// and including now's day, emitting one occurrence per rule whose DayOfMonth
// matches the day under the cursor. Emission order is day-ascending, then
// rule slice order within a day.
//
// A nil lastCheckedAt means first-ever invocation: no retroactive credit, the
// result is empty. Both bounds are compared at day granularity, so two calls
// on the same calendar day cannot fire a rule twice. A rule whose DayOfMonth
// does not exist in a month under the cursor (31 in April) simply never
// matches that month; there is no end-of-month fallback.
func DueOccurrences(rules []domain.RecurringRule, lastCheckedAt *time.Time, now time.Time) []Occurrence {
	if lastCheckedAt == nil || len(rules) == 0 {
		return nil
	}

	today := Midnight(now)
	lastCheck := Midnight(*lastCheckedAt)

	// Covers both "already checked today" and a clock that went backwards.
	if !lastCheck.Before(today) {
		return nil
	}

	var due []Occurrence
	for cursor := lastCheck.AddDate(0, 0, 1); !cursor.After(today); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Day()
		for _, rule := range rules {
			if rule.DayOfMonth == day {
				due = append(due, Occurrence{Rule: rule, Date: cursor})
			}
		}
	}
	return due
}

// TotalAmount sums the amounts of an emission.
func TotalAmount(occurrences []Occurrence) int64 {
	var total int64
	for _, occ := range occurrences {
		total += occ.Rule.Amount
	}
	return total
}

// Midnight truncates t to the start of its calendar day, keeping the location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
