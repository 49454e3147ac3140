package timecalc

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// HourPrecision is the number of decimals kept for hour values, both for
// display and for what is pushed to GitLab.
const HourPrecision = 2

// DBTimestampLayout is the text format Hamster uses for fact timestamps.
const DBTimestampLayout = "2006-01-02 15:04:05"

// DayLayout is the date portion of DBTimestampLayout.
const DayLayout = "2006-01-02"

// RoundHours rounds h to HourPrecision decimals, half away from zero.
func RoundHours(h float64) float64 {
	p := math.Pow10(HourPrecision)
	return math.Round(h*p) / p
}

// FormatHours formats an hour value with the shortest representation at
// HourPrecision, e.g. 1.5 -> "1.5", 2 -> "2", 0.25 -> "0.25".
func FormatHours(h float64) string {
	return strconv.FormatFloat(RoundHours(h), 'f', -1, 64)
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns every calendar day in [from, to] inclusive, at midnight.
func DaysBetween(from, to time.Time) []time.Time {
	var days []time.Time
	to = StartOfDay(to)
	for d := StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
