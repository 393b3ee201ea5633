package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"flowlens/internal/config"
	"flowlens/internal/jira"
	"flowlens/internal/timeline"
)

// friday is the end of the fixture's working week.
var friday = time.Date(2024, 3, 8, 17, 0, 0, 0, time.UTC)

func openFixture(t *testing.T) *Workspace {
	t.Helper()
	ws, err := Open(context.Background(), Options{
		Source:   jira.NewFileSource(filepath.Join("testdata", "export.json")),
		Input:    filepath.Join("testdata", "export.json"),
		CacheDir: t.TempDir(),
		Reports:  config.ReportDefaults{TerminalStatuses: []string{"Done"}, ExcludedStatuses: []string{"Cancelled"}, PeriodDays: 14, MaxPeriods: 52, HistogramBuckets: 10},
		Clock:    timeline.FixedClock(friday),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return ws
}

func TestOpen_MergesExportIntoCache(t *testing.T) {
	cacheDir := t.TempDir()
	export := filepath.Join("testdata", "export.json")

	ws, err := Open(context.Background(), Options{Source: jira.NewFileSource(export), Input: export, CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if ws.SourceID() != "export" {
		t.Errorf("Expected source id derived from file name, got %s", ws.SourceID())
	}

	cached, err := Open(context.Background(), Options{SourceID: "export", CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("Cache-only Open failed: %v", err)
	}
	if cached.Index().Len() != 3 {
		t.Errorf("Expected 3 cached issues, got %d", cached.Index().Len())
	}

	_, err = Open(context.Background(), Options{SourceID: "other", CacheDir: cacheDir})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData for an empty cache, got %v", err)
	}
}

func TestWorkspace_Status(t *testing.T) {
	ws := openFixture(t)

	at, _ := ParseInstant("2024-03-05")
	view, err := ws.Status("PROJ-1", at)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if view.Status != "In Progress" || view.Terminal || !view.InScope {
		t.Errorf("Unexpected historical view: %+v", view)
	}
	if view.HoursByStatus["To Do"] != 8 || view.HoursByStatus["In Progress"] != 8 {
		t.Errorf("Unexpected hours by status: %v", view.HoursByStatus)
	}

	live, err := ws.Status("PROJ-1", time.Time{})
	if err != nil {
		t.Fatalf("Live status failed: %v", err)
	}
	if live.Status != "Done" || !live.Terminal || live.At != nil {
		t.Errorf("Unexpected live view: %+v", live)
	}

	if _, err := ws.Status("NOPE-1", time.Time{}); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
}

func TestWorkspace_Burnup(t *testing.T) {
	ws := openFixture(t)

	from, _ := ParseDate("2024-03-04")
	to, _ := ParseDate("2024-03-06")
	series, err := ws.Burnup(context.Background(), nil, from, to)
	if err != nil {
		t.Fatalf("Burnup failed: %v", err)
	}

	var totals, done []int
	for _, s := range series {
		totals = append(totals, s.Total)
		done = append(done, s.Done)
	}
	if !reflect.DeepEqual(totals, []int{1, 2, 2}) {
		t.Errorf("Unexpected totals: %v", totals)
	}
	if !reflect.DeepEqual(done, []int{0, 0, 1}) {
		t.Errorf("Unexpected done counts: %v", done)
	}

	if _, err := ws.Burnup(context.Background(), nil, to, from); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for an inverted range, got %v", err)
	}
	if _, err := ws.Burnup(context.Background(), []string{"NOPE-1"}, from, to); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey for an unknown root, got %v", err)
	}
}

func TestWorkspace_PeriodsAndHistogram(t *testing.T) {
	ws := openFixture(t)

	anchor, _ := ParseDate("2024-03-08")
	periods := ws.Periods(nil, anchor, 7)
	if len(periods.Buckets) != 1 || !reflect.DeepEqual(periods.Buckets[0].Keys, []string{"PROJ-1"}) {
		t.Errorf("Unexpected periods: %+v", periods)
	}

	view, err := ws.Histogram(nil, MetricLead, "", 0)
	if err != nil {
		t.Fatalf("Histogram failed: %v", err)
	}
	buckets := view.Buckets
	if len(buckets) != 12 {
		t.Fatalf("Expected 12 buckets, got %d", len(buckets))
	}
	if !reflect.DeepEqual(buckets[0].Keys, []string{"EPIC-1", "PROJ-2"}) {
		t.Errorf("Unexpected no-data bucket: %v", buckets[0].Keys)
	}
	// 20 working hours is 2.5 days
	if !reflect.DeepEqual(buckets[3].Keys, []string{"PROJ-1"}) {
		t.Errorf("Expected PROJ-1 in the 3 day bucket, got %v", buckets[3].Keys)
	}
	if view.Summary.Count != 1 || view.Summary.Missing != 2 || view.Summary.Median != 2.5 {
		t.Errorf("Unexpected summary: %+v", view.Summary)
	}
	if view.Title() != "Lead Time (Working Days)" {
		t.Errorf("Unexpected title %q", view.Title())
	}

	tests := []struct {
		name   string
		metric string
		start  string
	}{
		{"cycle without start status", MetricCycle, ""},
		{"unknown metric", "throughput", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ws.Histogram(nil, tt.metric, tt.start, 0); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestWorkspace_SLA(t *testing.T) {
	ws := openFixture(t)

	breaches, err := ws.SLA(nil, "In Progress", 8)
	if err != nil {
		t.Fatalf("SLA failed: %v", err)
	}
	if len(breaches) != 2 {
		t.Fatalf("Expected 2 breaches, got %+v", breaches)
	}
	if breaches[0].Key != "PROJ-2" || breaches[0].Hours != 16 || breaches[1].Key != "PROJ-1" || breaches[1].Hours != 12 {
		t.Errorf("Unexpected breaches: %+v", breaches)
	}

	if _, err := ws.SLA(nil, "In Progress", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a zero threshold, got %v", err)
	}
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2024-03-05", time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC), false},
		{"2024-03-05T10:00:00+01:00", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), false},
		{"05.03.2024", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInstant(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseInstant(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
