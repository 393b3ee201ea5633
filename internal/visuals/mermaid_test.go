package visuals

import (
	"strings"
	"testing"
	"time"

	"flowlens/internal/report"
)

func TestGenerateBurnupChart(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	series := []report.PeriodSnapshot{
		{Date: day, Total: 1, Scope: 1, Done: 0},
		{Date: day.AddDate(0, 0, 1), Total: 2, Scope: 2, Done: 1},
	}

	chart := GenerateBurnupChart(series)
	for _, want := range []string{"xychart-beta", `x-axis ["Mar04", "Mar05"]`, "y-axis \"Issues\" 0 --> 3", "line [1, 2]", "line [0, 1]"} {
		if !strings.Contains(chart, want) {
			t.Errorf("Expected chart to contain %q, got:\n%s", want, chart)
		}
	}

	if GenerateBurnupChart(nil) != "" {
		t.Errorf("Expected empty chart for empty series")
	}
}

func TestGenerateBurnupChart_Subsamples(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]report.PeriodSnapshot, 120)
	for i := range series {
		series[i] = report.PeriodSnapshot{Date: day.AddDate(0, 0, i), Total: i}
	}

	chart := GenerateBurnupChart(series)
	axis := chart[strings.Index(chart, "x-axis"):]
	axis = axis[:strings.Index(axis, "\n")]
	if n := strings.Count(axis, "\""); n/2 > maxPoints+1 {
		t.Errorf("Expected at most %d labels, got %d", maxPoints+1, n/2)
	}
}

func TestGenerateHistogramChart(t *testing.T) {
	buckets := []report.TimeBucket{
		{Label: "No data", Kind: report.NoDataBucket, Keys: []string{"A-1"}},
		{Label: "1 day", Kind: report.ThresholdBucket, Threshold: 1, Keys: []string{"A-2", "A-3"}},
		{Label: "1+ days", Kind: report.OverflowBucket, Threshold: 1, Keys: []string{}},
	}

	chart := GenerateHistogramChart(buckets, "Lead Time")
	if strings.Contains(chart, "No data") {
		t.Errorf("No-data bucket should not be charted:\n%s", chart)
	}
	if !strings.Contains(chart, "bar [2, 0]") {
		t.Errorf("Unexpected bars:\n%s", chart)
	}

	if GenerateHistogramChart(buckets[:1], "Lead Time") != "" {
		t.Errorf("Expected empty chart when only no-data is populated")
	}
}

func TestGeneratePeriodChart_OldestFirst(t *testing.T) {
	anchor := time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC)
	result := report.PeriodResult{Buckets: []report.PeriodBucket{
		{Index: 0, End: anchor, Keys: []string{"A-1", "A-2"}},
		{Index: 1, End: anchor.AddDate(0, 0, -14), Keys: []string{"A-3"}},
	}}

	chart := GeneratePeriodChart(result)
	if !strings.Contains(chart, `x-axis ["Oct07", "Oct21"]`) || !strings.Contains(chart, "bar [1, 2]") {
		t.Errorf("Unexpected period chart:\n%s", chart)
	}
}

func TestGenerateTimeInStatusChart(t *testing.T) {
	chart := GenerateTimeInStatusChart(report.StatusBreakdown{Hours: map[string]int{"To Do": 4, "In Progress": 12}})
	if !strings.Contains(chart, `x-axis ["In_Progress", "To_Do"]`) || !strings.Contains(chart, "bar [12, 4]") {
		t.Errorf("Unexpected breakdown chart:\n%s", chart)
	}
}
