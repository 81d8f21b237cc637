// Package timeutil provides UTC calendar-day utilities for the progress engine.
// All streak, heatmap, and "best day" computations are defined on UTC days so that
// an event counts toward the same day regardless of which server handled it.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DayFormat is the canonical string form of a calendar day.
const DayFormat = "2006-01-02"

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the UTC day containing t.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// DayKey returns the canonical "YYYY-MM-DD" key for the UTC day containing t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// ParseDayKey parses a "YYYY-MM-DD" key into midnight UTC of that day.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, key, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DaysBetween returns the number of whole UTC days from a's day to b's day.
// Positive when b is after a, negative when before, zero for the same day.
func DaysBetween(a, b time.Time) int {
	da := StartOfDay(a)
	db := StartOfDay(b)
	return int(db.Sub(da).Hours() / 24)
}

// AddDays returns midnight UTC of the day n days after the day containing t.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}

// DaysWindow returns the sequence of midnight-UTC days for the trailing window
// of n days ending at the day containing end, oldest first. The day containing
// end is included, so n=1 yields just that day.
func DaysWindow(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, 0, n)
	first := AddDays(end, -(n - 1))
	for i := 0; i < n; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// IsFuture reports whether t is further in the future than the given clock-skew
// tolerance allows. Ingestion uses this to reject fabricated timestamps while
// tolerating small client/server clock drift.
func IsFuture(t time.Time, tolerance time.Duration) bool {
	return t.After(time.Now().Add(tolerance))
}
