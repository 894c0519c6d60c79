// Package cadence computes due dates and statuses for protocol tasks.
//
// All day arithmetic happens in date-key space: a date key is a
// "YYYY-MM-DD" string produced by formatting an instant in the task's
// timezone. Keys are converted to UTC-noon instants solely for day
// differences, which sidesteps the DST off-by-one errors that naive
// local-clock subtraction introduces.
package cadence

import (
	"fmt"
	"time"
)

const dateKeyLayout = "2006-01-02"

// DateKey formats an instant as a date key in the given location.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateKeyLayout)
}

// parseKey converts a date key to its UTC-noon instant.
func parseKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, err)
	}
	return t.Add(12 * time.Hour), nil
}

// ValidKey reports whether s is a well-formed date key.
func ValidKey(s string) bool {
	_, err := parseKey(s)
	return err == nil
}

// AddDays returns the date key n days after key. Malformed keys return
// the input unchanged; callers validate keys at the boundary.
func AddDays(key string, n int) string {
	t, err := parseKey(key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(dateKeyLayout)
}

// DaysBetween returns to - from in whole days. Malformed keys yield 0.
func DaysBetween(from, to string) int {
	ft, err1 := parseKey(from)
	tt, err2 := parseKey(to)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(tt.Sub(ft).Hours() / 24)
}

// NextWeekday returns the first date key at or after key that falls on
// the given weekday (0 = Sunday).
func NextWeekday(key string, weekday int) string {
	t, err := parseKey(key)
	if err != nil {
		return key
	}
	weekday = ((weekday % 7) + 7) % 7
	offset := (weekday - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset).Format(dateKeyLayout)
}

// ClampedMonthDay returns the date key for the given day-of-month in the
// month containing key, clamping to the month's last day (day 31 in
// February yields the 28th or 29th).
func ClampedMonthDay(key string, day int) string {
	t, err := parseKey(key)
	if err != nil {
		return key
	}
	return clampedDate(t.Year(), t.Month(), day).Format(dateKeyLayout)
}

// NextMonthDay returns the clamped day-of-month occurrence in the month
// after the month containing key, handling the December to January wrap.
func NextMonthDay(key string, day int) string {
	t, err := parseKey(key)
	if err != nil {
		return key
	}
	year, month := t.Year(), t.Month()
	if month == time.December {
		year++
		month = time.January
	} else {
		month++
	}
	return clampedDate(year, month, day).Format(dateKeyLayout)
}

func clampedDate(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}
