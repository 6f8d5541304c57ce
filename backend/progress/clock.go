// Package progress holds the pure aggregation rules: streaks, goal and skill
// recalculation, the daily rollup, dashboard stats and the weekly series.
// Nothing here touches the database; services load snapshots, call these
// functions and persist the result.
package progress

import (
	"math"
	"time"
)

// Clock is the only source of "now" for the aggregation code.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports wall-clock time in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// DateOf truncates t to midnight UTC of its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is DateOf(c.Now()).
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// round2 mirrors the decimal(…,2) columns the values are shown with.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(math.Min(100, part/whole*100))
}
