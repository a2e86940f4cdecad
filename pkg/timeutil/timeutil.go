// Package timeutil provides calendar-day helpers for StudyBuddy.
// Streaks and daily activity are counted in a configurable time zone,
// so every helper takes an explicit *time.Location (nil means UTC).
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

const day = 24 * time.Hour

// LoadLocation resolves a time zone name. An empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeutil: unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// StartOfDay returns the start of the day (00:00:00) of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(orUTC(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// CivilDay maps t to its calendar day in loc, expressed as midnight UTC.
// Midnight UTC values are 24h apart for consecutive days regardless of DST,
// which makes day arithmetic exact.
func CivilDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(orUTC(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b in loc
// (negative if b is before a).
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(CivilDay(b, loc).Sub(CivilDay(a, loc)) / day)
}

// IsSameDay checks if a and b fall on the same calendar day in loc.
func IsSameDay(a, b time.Time, loc *time.Location) bool {
	return DaysBetween(a, b, loc) == 0
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate, s, orUTC(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDateStr formats t as a date string (YYYY-MM-DD) in loc.
func FormatDateStr(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(FormatDate)
}

// HoursUntilEndOfDay returns whole hours left in t's day in loc.
func HoursUntilEndOfDay(t time.Time, loc *time.Location) int {
	next := StartOfDay(t, loc).AddDate(0, 0, 1)
	return int(next.Sub(t.In(orUTC(loc))).Hours())
}
