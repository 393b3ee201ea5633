package timeline

import (
	"fmt"
	"strings"
	"time"

	"flowlens/internal/calendar"
	"flowlens/internal/changelog"
)

// NotCreated is the status reported for instants before an issue existed.
const NotCreated = "Not Created"

// StatusPoint is the status in effect from an instant onwards.
type StatusPoint struct {
	EffectiveFrom time.Time `json:"effectiveFrom"`
	Status        string    `json:"status"`
}

// StatusTimeline is a non-decreasing sequence of status points; the first one
// is anchored at creation.
type StatusTimeline []StatusPoint

// BuildStatusTimeline replays status changes into a timeline. The initial
// point carries the From of the first status change, or currentStatus when
// the issue never transitioned.
func BuildStatusTimeline(createdAt time.Time, currentStatus string, log changelog.Log) (StatusTimeline, error) {
	if createdAt.IsZero() {
		return nil, fmt.Errorf("%w: missing createdAt", ErrContractViolation)
	}

	changes := log.ByField(changelog.FieldStatus).Sorted()
	if len(changes) == 0 {
		return StatusTimeline{{EffectiveFrom: createdAt, Status: currentStatus}}, nil
	}

	if changes[0].From == nil {
		return nil, fmt.Errorf("%w: first status change at %s has no from value",
			ErrContractViolation, changes[0].OccurredAt.Format(time.RFC3339))
	}

	tl := make(StatusTimeline, 0, len(changes)+1)
	tl = append(tl, StatusPoint{EffectiveFrom: createdAt, Status: *changes[0].From})
	for _, c := range changes {
		if c.OccurredAt.Before(createdAt) {
			return nil, fmt.Errorf("%w: status change at %s precedes creation",
				ErrContractViolation, c.OccurredAt.Format(time.RFC3339))
		}
		tl = append(tl, StatusPoint{EffectiveFrom: c.OccurredAt, Status: c.ToValue()})
	}
	return tl, nil
}

// At returns the status in effect at t, or NotCreated before the first point.
// At the creation instant itself the initial status applies, even when a
// change carries the same timestamp.
func (tl StatusTimeline) At(t time.Time) string {
	if len(tl) == 0 || t.Before(tl[0].EffectiveFrom) {
		return NotCreated
	}
	if t.Equal(tl[0].EffectiveFrom) {
		return tl[0].Status
	}

	status := tl[0].Status
	for _, p := range tl[1:] {
		if p.EffectiveFrom.After(t) {
			break
		}
		status = p.Status
	}
	return status
}

// AccumulatedHours attributes working hours between consecutive points to the
// earlier point's status. The interval from the last point is closed at asOf.
func (tl StatusTimeline) AccumulatedHours(asOf time.Time) map[string]int {
	out := make(map[string]int)
	if len(tl) == 0 || asOf.Before(tl[0].EffectiveFrom) {
		return out
	}

	for i, p := range tl {
		if p.EffectiveFrom.After(asOf) {
			break
		}
		end := asOf
		if i+1 < len(tl) && !tl[i+1].EffectiveFrom.After(asOf) {
			end = tl[i+1].EffectiveFrom
		}
		out[p.Status] += calendar.WorkingHoursBetween(p.EffectiveFrom, end)
	}
	return out
}

// FirstEntry returns when the timeline first reached status, matched case-insensitively.
func (tl StatusTimeline) FirstEntry(status string) (time.Time, bool) {
	for _, p := range tl {
		if strings.EqualFold(p.Status, status) {
			return p.EffectiveFrom, true
		}
	}
	return time.Time{}, false
}
