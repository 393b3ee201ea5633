package changelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1 := NewStore()
	sourceID := "test-board"
	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	store1.Append(sourceID, []History{
		{
			Key:           "PROJ-1",
			CreatedAt:     created,
			CurrentStatus: "In Progress",
			Entries: Log{
				{OccurredAt: created.Add(time.Hour), Field: FieldStatus, From: Value("Backlog"), To: Value("In Progress")},
			},
		},
	})

	if err := store1.Save(tmpDir, sourceID); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cachePath := filepath.Join(tmpDir, sourceID+".jsonl")
	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		t.Errorf("Cache file does not exist: %s", cachePath)
	}

	store2 := NewStore()
	if err := store2.Load(tmpDir, sourceID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	h, ok := store2.Get(sourceID, "PROJ-1")
	if !ok {
		t.Fatalf("Expected PROJ-1 after reload")
	}
	if len(h.Entries) != 1 || h.Entries[0].ToValue() != "In Progress" {
		t.Errorf("Unexpected entries after reload: %+v", h.Entries)
	}
	if !h.CreatedAt.Equal(created) {
		t.Errorf("Expected createdAt %v, got %v", created, h.CreatedAt)
	}
}

func TestStore_LoadMissingCache(t *testing.T) {
	store := NewStore()
	if err := store.Load(t.TempDir(), "nothing-here"); err != nil {
		t.Fatalf("Expected missing cache to be tolerated, got %v", err)
	}
	if store.Count("nothing-here") != 0 {
		t.Errorf("Expected empty store")
	}
}

func TestStore_AppendMergesEntries(t *testing.T) {
	store := NewStore()
	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	first := Entry{OccurredAt: created.Add(2 * time.Hour), Field: FieldStatus, From: Value("In Progress"), To: Value("Done")}
	second := Entry{OccurredAt: created.Add(time.Hour), Field: FieldStatus, From: Value("Backlog"), To: Value("In Progress")}

	store.Append("src", []History{{Key: "PROJ-1", CreatedAt: created, CurrentStatus: "In Progress", Entries: Log{second}}})
	store.Append("src", []History{{Key: "PROJ-1", CreatedAt: created, CurrentStatus: "Done", Entries: Log{second, first}}})

	h, _ := store.Get("src", "PROJ-1")
	if h.CurrentStatus != "Done" {
		t.Errorf("Expected newest snapshot to win, got %s", h.CurrentStatus)
	}
	if len(h.Entries) != 2 {
		t.Fatalf("Expected 2 merged entries, got %d", len(h.Entries))
	}
	if h.Entries[0].ToValue() != "In Progress" {
		t.Errorf("Expected entries in chronological order, got %+v", h.Entries)
	}

	all := store.All("src")
	if len(all) != 1 {
		t.Errorf("Expected 1 history, got %d", len(all))
	}
}
