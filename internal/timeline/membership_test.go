package timeline

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"flowlens/internal/changelog"
)

func childLink(ts time.Time, removed, added string) changelog.Entry {
	e := changelog.Entry{OccurredAt: ts, Field: changelog.FieldEpicChild}
	if removed != "" {
		e.From = changelog.Value(removed)
	}
	if added != "" {
		e.To = changelog.Value(added)
	}
	return e
}

func TestMembershipTimeline_MembersAt(t *testing.T) {
	log := changelog.Log{
		childLink(monday.Add(3*time.Hour), "", "C-3"),
		childLink(monday.Add(time.Hour), "", "C-1"),
		childLink(monday.Add(2*time.Hour), "", "C-2"),
		childLink(monday.Add(4*time.Hour), "C-1", ""),
		childLink(monday.Add(5*time.Hour), "", "C-1"),
		childLink(monday.Add(6*time.Hour), "C-2", "C-4"),
	}
	tl := BuildMembershipTimeline(log)

	tests := []struct {
		name string
		at   time.Time
		want []string
	}{
		{"BeforeAnyEvent", monday, []string{}},
		{"FirstAdd", monday.Add(time.Hour), []string{"C-1"}},
		{"ThreeAdded", monday.Add(3 * time.Hour), []string{"C-1", "C-2", "C-3"}},
		{"AfterRemoval", monday.Add(4 * time.Hour), []string{"C-2", "C-3"}},
		{"ReAdded", monday.Add(5 * time.Hour), []string{"C-1", "C-2", "C-3"}},
		{"Swapped", monday.Add(6 * time.Hour), []string{"C-1", "C-3", "C-4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tl.MembersAt(tt.at)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MembersAt() = %v, want %v", got, tt.want)
			}
			// Replaying the same instant is idempotent
			if again := tl.MembersAt(tt.at); !reflect.DeepEqual(again, got) {
				t.Errorf("Second MembersAt() = %v, first %v", again, got)
			}
		})
	}
}

func TestMembershipTimeline_IdempotentOperations(t *testing.T) {
	tl := MembershipTimeline{
		{At: monday, Added: false, Member: "C-9"},
		{At: monday.Add(time.Hour), Added: true, Member: "C-1"},
		{At: monday.Add(2 * time.Hour), Added: true, Member: "C-1"},
		{At: monday.Add(3 * time.Hour), Added: false, Member: "C-1"},
	}

	if got := tl.MembersAt(monday.Add(2 * time.Hour)); !reflect.DeepEqual(got, []string{"C-1"}) {
		t.Errorf("Expected double add to yield a single member, got %v", got)
	}
	if got := tl.MembersAt(monday.Add(3 * time.Hour)); len(got) != 0 {
		t.Errorf("Expected single remove to cancel double add, got %v", got)
	}
}

func TestIndex_MembersAt(t *testing.T) {
	histories := []changelog.History{
		{
			Key: "EPIC-1", CreatedAt: monday, CurrentStatus: "In Progress",
			Entries: changelog.Log{
				childLink(monday.Add(time.Hour), "", "PROJ-1"),
				childLink(monday.Add(time.Hour), "", "PROJ-404"),
				childLink(monday.Add(2*time.Hour), "", "PROJ-2"),
			},
		},
		{Key: "PROJ-2", CreatedAt: monday, CurrentStatus: "To Do"},
		{Key: "PROJ-1", CreatedAt: monday, CurrentStatus: "Done"},
	}

	ix, err := NewIndex(histories)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	if ix.Len() != 3 {
		t.Fatalf("Expected 3 entities, got %d", ix.Len())
	}

	epic, _ := ix.Get("EPIC-1")
	members := ix.MembersAt(epic, monday.Add(3*time.Hour))
	if len(members) != 2 || members[0].Key != "PROJ-1" || members[1].Key != "PROJ-2" {
		t.Errorf("Expected PROJ-1 and PROJ-2 (unknown keys skipped), got %d members", len(members))
	}

	keys := []string{}
	for _, e := range ix.Entities() {
		keys = append(keys, e.Key)
	}
	if !reflect.DeepEqual(keys, []string{"EPIC-1", "PROJ-1", "PROJ-2"}) {
		t.Errorf("Expected key order, got %v", keys)
	}
}

func TestNewIndex_RejectsInvalidHistory(t *testing.T) {
	_, err := NewIndex([]changelog.History{
		{Key: "OK-1", CreatedAt: monday},
		{Key: "BAD-1"},
	})
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("Expected ErrContractViolation, got %v", err)
	}

	_, err = NewIndex([]changelog.History{
		{Key: "DUP-1", CreatedAt: monday},
		{Key: "DUP-1", CreatedAt: monday},
	})
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("Expected duplicate keys to be rejected, got %v", err)
	}
}
