// Package timeline replays issue change logs into point-in-time views.
package timeline

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"flowlens/internal/changelog"
)

// ErrContractViolation is returned when an issue history cannot be replayed faithfully.
var ErrContractViolation = errors.New("input contract violation")

// Entity is an immutable tracked issue with its derived timelines.
type Entity struct {
	Key           string
	IssueType     string
	CurrentStatus string

	createdAt  time.Time
	resolvedAt *time.Time
	log        changelog.Log
	status     StatusTimeline

	membershipOnce sync.Once
	membership     MembershipTimeline
}

// NewEntity validates a history and derives its status timeline.
func NewEntity(h changelog.History) (*Entity, error) {
	if h.Key == "" {
		return nil, fmt.Errorf("%w: history without key", ErrContractViolation)
	}
	if h.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: %s: missing createdAt", ErrContractViolation, h.Key)
	}
	if err := h.Entries.Validate(h.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContractViolation, h.Key, err)
	}

	sorted := h.Entries.Sorted()
	status, err := BuildStatusTimeline(h.CreatedAt, h.CurrentStatus, sorted)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.Key, err)
	}

	e := &Entity{
		Key:           h.Key,
		IssueType:     h.IssueType,
		CurrentStatus: h.CurrentStatus,
		createdAt:     h.CreatedAt,
		log:           sorted,
		status:        status,
	}
	if h.ResolvedAt != nil {
		r := *h.ResolvedAt
		e.resolvedAt = &r
	}
	return e, nil
}

// CreatedAt returns when the issue was created.
func (e *Entity) CreatedAt() time.Time { return e.createdAt }

// ResolvedAt returns a copy of the resolution instant, or nil while unresolved.
func (e *Entity) ResolvedAt() *time.Time {
	if e.resolvedAt == nil {
		return nil
	}
	r := *e.resolvedAt
	return &r
}

// Log returns a copy of the chronologically ordered change log.
func (e *Entity) Log() changelog.Log { return slices.Clone(e.log) }

// StatusTimeline returns a copy of the derived status timeline.
func (e *Entity) StatusTimeline() StatusTimeline { return slices.Clone(e.status) }

// Membership returns the child-membership timeline, derived on first use.
func (e *Entity) Membership() MembershipTimeline {
	e.membershipOnce.Do(func() {
		e.membership = BuildMembershipTimeline(e.log)
	})
	return e.membership
}

// StatusAt answers the status at t. A zero t is a live query and returns
// CurrentStatus without consulting the timeline.
func (e *Entity) StatusAt(t time.Time) string {
	if t.IsZero() {
		return e.CurrentStatus
	}
	return e.status.At(t)
}

// IsInTerminalState reports whether the status at t is terminal under p.
func (e *Entity) IsInTerminalState(p Policy, t time.Time) bool {
	return p.IsTerminal(e.StatusAt(t))
}

// IsInScope reports whether the issue exists at t and its status is not excluded under p.
func (e *Entity) IsInScope(p Policy, t time.Time) bool {
	s := e.StatusAt(t)
	return s != NotCreated && !p.IsExcluded(s)
}

// AsOf is the natural end of the entity's measurement: its resolution, or now.
func (e *Entity) AsOf(clock Clock) time.Time {
	if e.resolvedAt != nil {
		return *e.resolvedAt
	}
	return clock.Now()
}

// AccumulatedTimeByStatus returns working hours spent per status up to asOf.
func (e *Entity) AccumulatedTimeByStatus(asOf time.Time) map[string]int {
	return e.status.AccumulatedHours(asOf)
}
