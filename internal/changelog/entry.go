package changelog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Field names the tracker collaborator normalizes its changelog items to.
const (
	// FieldStatus marks a workflow status transition.
	FieldStatus = "status"
	// FieldEpicChild marks an issue being linked to (or unlinked from) an epic.
	// The entry lives on the epic's log: To holds an added child key, From a removed one.
	FieldEpicChild = "Epic Child"
	// FieldResolution marks the application or removal of a resolution.
	FieldResolution = "resolution"
)

// ErrInvalidEntry is returned when a change log breaks the input contract.
var ErrInvalidEntry = errors.New("invalid change entry")

// Entry is one audited field change on a tracked issue.
type Entry struct {
	// OccurredAt is when the tracker recorded the change.
	OccurredAt time.Time `json:"ts"`
	// Field is the normalized field name (see FieldStatus, FieldEpicChild).
	Field string `json:"field"`
	// From is the value before the change; nil when the field was empty.
	From *string `json:"from,omitempty"`
	// To is the value after the change; nil when the field was cleared.
	To *string `json:"to,omitempty"`
}

// FromValue returns the previous value or "" when it was empty.
func (e Entry) FromValue() string {
	if e.From == nil {
		return ""
	}
	return *e.From
}

// ToValue returns the new value or "" when it was cleared.
func (e Entry) ToValue() string {
	if e.To == nil {
		return ""
	}
	return *e.To
}

// identity computes a string identifier for an entry to aid deduplication.
func (e Entry) identity() string {
	return fmt.Sprintf("%d|%s|%s|%s", e.OccurredAt.UnixMicro(), e.Field, e.FromValue(), e.ToValue())
}

// Value is a convenience for building nullable entry values.
func Value(s string) *string {
	return &s
}

// Log is the change history of a single issue.
type Log []Entry

// ByField returns the entries for the given field, keeping their relative order.
func (l Log) ByField(field string) Log {
	var out Log
	for _, e := range l {
		if strings.EqualFold(e.Field, field) {
			out = append(out, e)
		}
	}
	return out
}

// Sorted returns a chronologically ordered copy of the log.
// Entries sharing a timestamp keep their input order.
func (l Log) Sorted() Log {
	out := slices.Clone(l)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})
	return out
}

// Validate checks that every entry carries a timestamp and none predates createdAt.
func (l Log) Validate(createdAt time.Time) error {
	for i, e := range l {
		if e.OccurredAt.IsZero() {
			return fmt.Errorf("%w: entry %d (%s) has no timestamp", ErrInvalidEntry, i, e.Field)
		}
		if !createdAt.IsZero() && e.OccurredAt.Before(createdAt) {
			return fmt.Errorf("%w: entry %d (%s) at %s precedes creation at %s",
				ErrInvalidEntry, i, e.Field, e.OccurredAt.Format(time.RFC3339), createdAt.Format(time.RFC3339))
		}
	}
	return nil
}

// Dedup drops entries identical in time, field and values, keeping the first occurrence.
func (l Log) Dedup() Log {
	seen := make(map[string]bool, len(l))
	out := make(Log, 0, len(l))
	for _, e := range l {
		id := e.identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, e)
	}
	return out
}

// History is the input record for one issue: its live snapshot plus full change log.
type History struct {
	Key           string     `json:"key"`
	IssueType     string     `json:"issueType,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CurrentStatus string     `json:"currentStatus"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	Entries       Log        `json:"changelog"`
}
