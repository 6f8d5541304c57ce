package progress

import (
	"time"

	"skilltracker/backend/models"
)

const (
	DefaultWeeks = 12
	MaxWeeks     = 52
)

type WeekBucket struct {
	WeekNumber  int       `json:"week_number"`
	WeekStart   time.Time `json:"week_start"`
	WeekEnd     time.Time `json:"week_end"`
	WeekLabel   string    `json:"week_label"`
	HoursLogged float64   `json:"hours_logged"`
}

// ClampWeeks maps a requested window to [1, MaxWeeks]; zero or less means default.
func ClampWeeks(weeks int) int {
	switch {
	case weeks <= 0:
		return DefaultWeeks
	case weeks > MaxWeeks:
		return MaxWeeks
	}
	return weeks
}

// MondayOf returns the Monday starting the Monday–Sunday week containing day.
func MondayOf(day time.Time) time.Time {
	d := DateOf(day)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WindowStart is the first day covered by WeeklyActivity for the same arguments.
func WindowStart(today time.Time, weeks int) time.Time {
	return MondayOf(today).AddDate(0, 0, -7*(ClampWeeks(weeks)-1))
}

// WeeklyActivity returns weeks buckets, oldest first; the last one contains today.
func WeeklyActivity(logs []models.ProgressLog, today time.Time, weeks int) []WeekBucket {
	weeks = ClampWeeks(weeks)
	start := WindowStart(today, weeks)

	buckets := make([]WeekBucket, weeks)
	for i := range buckets {
		ws := start.AddDate(0, 0, 7*i)
		we := ws.AddDate(0, 0, 6)
		buckets[i] = WeekBucket{
			WeekNumber: i + 1,
			WeekStart:  ws,
			WeekEnd:    we,
			WeekLabel:  WeekLabel(ws, we),
		}
	}

	for _, l := range logs {
		d := DateOf(l.LogDate)
		if d.Before(start) {
			continue
		}
		idx := int(d.Sub(start).Hours()/24) / 7
		if idx >= weeks {
			continue
		}
		buckets[idx].HoursLogged += l.HoursLogged
	}
	for i := range buckets {
		buckets[i].HoursLogged = round2(buckets[i].HoursLogged)
	}
	return buckets
}

// WeekLabel renders "Jan 2 - Jan 8", adding the year when the range crosses one.
func WeekLabel(start, end time.Time) string {
	if start.Year() != end.Year() {
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}
