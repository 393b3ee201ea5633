package visuals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"flowlens/internal/report"
	"flowlens/internal/timeline"
)

func newTable(header table.Row) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(header)
	return tbl
}

// StatusTable renders an issue's status timeline and the working hours per status.
func StatusTable(key, status string, tl timeline.StatusTimeline, hours map[string]int) string {
	points := newTable(table.Row{"Effective From", "Status"})
	for _, p := range tl {
		points.AppendRow(table.Row{p.EffectiveFrom.Format(time.RFC3339), p.Status})
	}
	points.AppendFooter(table.Row{key, status})

	statuses := sortedByValue(hours)
	acc := newTable(table.Row{"Status", "Working Hours"})
	total := 0
	for _, s := range statuses {
		acc.AppendRow(table.Row{s, hours[s]})
		total += hours[s]
	}
	acc.AppendFooter(table.Row{"Total", total})

	return points.Render() + "\n" + acc.Render()
}

// BurnupTable renders one row per day of a snapshot series.
func BurnupTable(series []report.PeriodSnapshot) string {
	tbl := newTable(table.Row{"Date", "Total", "Scope", "Done"})
	for _, s := range series {
		tbl.AppendRow(table.Row{s.Label, s.Total, s.Scope, s.Done})
	}
	return tbl.Render()
}

// PeriodTable renders period buckets, most recent first.
func PeriodTable(result report.PeriodResult) string {
	tbl := newTable(table.Row{"#", "Period", "Resolved", "Issues"})
	for _, b := range result.Buckets {
		tbl.AppendRow(table.Row{b.Index, b.Label, len(b.Keys), strings.Join(b.Keys, ", ")})
	}
	if len(result.Unbucketed) > 0 {
		tbl.AppendFooter(table.Row{"", "Unbucketed", len(result.Unbucketed), strings.Join(result.Unbucketed, ", ")})
	}
	return tbl.Render()
}

// HistogramTable renders bucket counts with the duration summary as footer.
func HistogramTable(buckets []report.TimeBucket, summary report.DurationSummary) string {
	tbl := newTable(table.Row{"Bucket", "Issues"})
	for _, b := range buckets {
		tbl.AppendRow(table.Row{b.Label, b.Count()})
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("p50 %.1f / p85 %.1f / p95 %.1f", summary.Median, summary.P85, summary.P95),
		summary.Count,
	})
	return tbl.Render()
}

// BreakdownTable renders working hours per status, largest first.
func BreakdownTable(breakdown report.StatusBreakdown) string {
	tbl := newTable(table.Row{"Status", "Working Hours"})
	for _, s := range sortedByValue(breakdown.Hours) {
		tbl.AppendRow(table.Row{s, breakdown.Hours[s]})
	}
	tbl.AppendFooter(table.Row{"Issues", len(breakdown.PerIssue)})
	return tbl.Render()
}

// SLATable renders SLA breaches in the order given.
func SLATable(breaches []report.SLABreach) string {
	tbl := newTable(table.Row{"Issue", "Status", "Hours", "Threshold"})
	for _, b := range breaches {
		tbl.AppendRow(table.Row{b.Key, b.Status, b.Hours, b.ThresholdHours})
	}
	tbl.AppendFooter(table.Row{"Breaches", "", len(breaches), ""})
	return tbl.Render()
}

func sortedByValue(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
