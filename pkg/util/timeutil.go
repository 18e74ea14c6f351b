package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DayKey formats a timestamp as its UTC calendar date.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
