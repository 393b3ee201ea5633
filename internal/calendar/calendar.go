// Package calendar measures elapsed working time against a fixed business window.
package calendar

import "time"

// HoursPerDay is the length of one working day in the default window.
const HoursPerDay = 8

// Calendar describes a weekly working window evaluated in UTC.
// Hours are half-open: StartHour is inside the window, EndHour is not.
type Calendar struct {
	StartHour int
	EndHour   int
	Weekend   map[time.Weekday]bool
}

// Default is Monday to Friday, 09:00 to 17:00 UTC, without holidays.
var Default = Calendar{
	StartHour: 9,
	EndHour:   17,
	Weekend:   map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
}

// IsWorkingInstant reports whether t falls inside the working window.
func (c Calendar) IsWorkingInstant(t time.Time) bool {
	u := t.UTC()
	if c.Weekend[u.Weekday()] {
		return false
	}
	h := u.Hour()
	return h >= c.StartHour && h < c.EndHour
}

// WorkingHoursBetween counts the whole hours between start and end whose
// starting boundary is a working instant. Gaps under one hour count as zero.
func (c Calendar) WorkingHoursBetween(start, end time.Time) int {
	span := end.Sub(start)
	if span < time.Hour {
		return 0
	}

	n := int(span / time.Hour)
	hours := 0
	for k := 0; k < n; k++ {
		if c.IsWorkingInstant(start.Add(time.Duration(k) * time.Hour)) {
			hours++
		}
	}
	return hours
}

// WorkingDaysBetween expresses WorkingHoursBetween in working days.
func (c Calendar) WorkingDaysBetween(start, end time.Time) float64 {
	perDay := c.EndHour - c.StartHour
	if perDay <= 0 {
		return 0
	}
	return float64(c.WorkingHoursBetween(start, end)) / float64(perDay)
}

// IsWorkingInstant reports whether t falls inside the default window.
func IsWorkingInstant(t time.Time) bool {
	return Default.IsWorkingInstant(t)
}

// WorkingHoursBetween counts working hours in the default window.
func WorkingHoursBetween(start, end time.Time) int {
	return Default.WorkingHoursBetween(start, end)
}

// WorkingDaysBetween counts working hours in the default window, divided by HoursPerDay.
func WorkingDaysBetween(start, end time.Time) float64 {
	return float64(Default.WorkingHoursBetween(start, end)) / HoursPerDay
}
