package visuals

import (
	"fmt"
	"math"
	"strings"

	"flowlens/internal/report"
)

// maxPoints is roughly where xychart-beta labels start to overlap.
const maxPoints = 60

// GenerateBurnupChart creates a Mermaid xychart-beta with total, scope and done lines per day.
func GenerateBurnupChart(series []report.PeriodSnapshot) string {
	if len(series) == 0 {
		return ""
	}

	var labels, totals, scopes, done []string
	maxY := 0

	step := 1
	if len(series) > maxPoints {
		step = int(math.Ceil(float64(len(series)) / maxPoints))
	}

	for i, s := range series {
		if s.Total > maxY {
			maxY = s.Total
		}
		if i%step != 0 && i != len(series)-1 {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", s.Date.Format("Jan02")))
		totals = append(totals, fmt.Sprintf("%d", s.Total))
		scopes = append(scopes, fmt.Sprintf("%d", s.Scope))
		done = append(done, fmt.Sprintf("%d", s.Done))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Burnup (Total / Scope / Done)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Issues\" 0 --> %d\n", headroom(maxY)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(totals, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(scopes, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(done, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateHistogramChart creates a Mermaid bar chart of a duration histogram.
// The no-data bucket is left out of the chart.
func GenerateHistogramChart(buckets []report.TimeBucket, title string) string {
	var labels, values []string
	maxVal, total := 0, 0

	for _, b := range buckets {
		if b.Kind == report.NoDataBucket {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", b.Label))
		values = append(values, fmt.Sprintf("%d", b.Count()))
		total += b.Count()
		if b.Count() > maxVal {
			maxVal = b.Count()
		}
	}
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Issues\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePeriodChart creates a Mermaid bar chart of resolved issues per period, oldest first.
func GeneratePeriodChart(result report.PeriodResult) string {
	if len(result.Buckets) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for i := len(result.Buckets) - 1; i >= 0; i-- {
		b := result.Buckets[i]
		labels = append(labels, fmt.Sprintf("\"%s\"", b.End.Format("Jan02")))
		values = append(values, fmt.Sprintf("%d", len(b.Keys)))
		if len(b.Keys) > maxVal {
			maxVal = len(b.Keys)
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Resolved per Period\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Issues Resolved\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateTimeInStatusChart creates a Mermaid bar chart of working hours per status, largest first.
func GenerateTimeInStatusChart(breakdown report.StatusBreakdown) string {
	if len(breakdown.Hours) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for _, s := range sortedByValue(breakdown.Hours) {
		// Replace spaces to help mermaid rendering
		labels = append(labels, fmt.Sprintf("\"%s\"", strings.ReplaceAll(s, " ", "_")))
		values = append(values, fmt.Sprintf("%d", breakdown.Hours[s]))
		if breakdown.Hours[s] > maxVal {
			maxVal = breakdown.Hours[s]
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Time in Status (Working Hours)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Hours\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func headroom(maxVal int) int {
	return maxVal + int(math.Max(1, float64(maxVal)*0.2))
}
