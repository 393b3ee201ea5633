package timeline

import (
	"slices"
	"sort"
	"time"

	"flowlens/internal/changelog"
)

// MembershipEvent adds or removes one member from a set.
type MembershipEvent struct {
	At     time.Time `json:"at"`
	Added  bool      `json:"added"`
	Member string    `json:"member"`
}

// MembershipTimeline is a chronologically ordered list of membership events.
type MembershipTimeline []MembershipEvent

// BuildMembershipTimeline extracts "Epic Child" changes from a log. An entry
// that both unlinks and links yields the removal first.
func BuildMembershipTimeline(log changelog.Log) MembershipTimeline {
	var tl MembershipTimeline
	for _, e := range log.ByField(changelog.FieldEpicChild).Sorted() {
		if e.From != nil && *e.From != "" {
			tl = append(tl, MembershipEvent{At: e.OccurredAt, Added: false, Member: *e.From})
		}
		if e.To != nil && *e.To != "" {
			tl = append(tl, MembershipEvent{At: e.OccurredAt, Added: true, Member: *e.To})
		}
	}
	return tl
}

// MembersAt replays every event at or before t and returns the resulting
// members in key order.
func (tl MembershipTimeline) MembersAt(t time.Time) []string {
	events := slices.Clone(tl)
	slices.SortStableFunc(events, func(a, b MembershipEvent) int {
		return a.At.Compare(b.At)
	})

	set := make(map[string]bool)
	for _, ev := range events {
		if ev.At.After(t) {
			break
		}
		if ev.Added {
			set[ev.Member] = true
		} else {
			delete(set, ev.Member)
		}
	}

	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}
