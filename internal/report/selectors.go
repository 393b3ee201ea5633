package report

import (
	"flowlens/internal/calendar"
	"flowlens/internal/timeline"
)

// LeadTimeDays measures working days from creation to resolution.
// Unresolved issues have no lead time.
func LeadTimeDays() DurationSelector {
	return func(e *timeline.Entity) (float64, bool) {
		r := e.ResolvedAt()
		if r == nil {
			return 0, false
		}
		return calendar.WorkingDaysBetween(e.CreatedAt(), *r), true
	}
}

// CycleTimeDays measures working days from the first entry into startStatus
// to resolution. Issues that never reached startStatus have no cycle time.
func CycleTimeDays(startStatus string) DurationSelector {
	return func(e *timeline.Entity) (float64, bool) {
		r := e.ResolvedAt()
		if r == nil {
			return 0, false
		}
		started, ok := e.StatusTimeline().FirstEntry(startStatus)
		if !ok || started.After(*r) {
			return 0, false
		}
		return calendar.WorkingDaysBetween(started, *r), true
	}
}

// AgeDays measures working days an unresolved issue has been open as of the clock.
func AgeDays(clock timeline.Clock) DurationSelector {
	return func(e *timeline.Entity) (float64, bool) {
		if e.ResolvedAt() != nil {
			return 0, false
		}
		return calendar.WorkingDaysBetween(e.CreatedAt(), clock.Now()), true
	}
}
