package workspace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flowlens/internal/report"
	"flowlens/internal/timeline"
)

// StatusView answers "what was true about this issue at an instant".
type StatusView struct {
	Key           string                  `json:"key"`
	IssueType     string                  `json:"issueType,omitempty"`
	At            *time.Time              `json:"at,omitempty"`
	Status        string                  `json:"status"`
	Terminal      bool                    `json:"terminal"`
	InScope       bool                    `json:"inScope"`
	CreatedAt     time.Time               `json:"createdAt"`
	ResolvedAt    *time.Time              `json:"resolvedAt,omitempty"`
	Timeline      timeline.StatusTimeline `json:"timeline"`
	HoursByStatus map[string]int          `json:"hoursByStatus"`
}

// Status reconstructs key's state at at. A zero at is a live query.
func (w *Workspace) Status(key string, at time.Time) (StatusView, error) {
	e, ok := w.index.Get(key)
	if !ok {
		return StatusView{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	asOf := e.AsOf(w.clock)
	view := StatusView{
		Key:        e.Key,
		IssueType:  e.IssueType,
		Status:     e.StatusAt(at),
		Terminal:   e.IsInTerminalState(w.policy, at),
		InScope:    e.IsInScope(w.policy, at),
		CreatedAt:  e.CreatedAt(),
		ResolvedAt: e.ResolvedAt(),
		Timeline:   e.StatusTimeline(),
	}
	if !at.IsZero() {
		view.At = &at
		if at.Before(asOf) {
			asOf = at
		}
	}
	view.HoursByStatus = e.AccumulatedTimeByStatus(asOf)
	return view, nil
}

// Roots returns the entities for keys, or every entity with membership history when keys is empty.
func (w *Workspace) Roots(keys []string) ([]*timeline.Entity, error) {
	if len(keys) > 0 {
		roots := make([]*timeline.Entity, 0, len(keys))
		for _, k := range keys {
			e, ok := w.index.Get(k)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownKey, k)
			}
			roots = append(roots, e)
		}
		return roots, nil
	}

	var roots []*timeline.Entity
	for _, e := range w.index.Entities() {
		if len(e.Membership()) > 0 {
			roots = append(roots, e)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no issue has child membership history", ErrInvalidArgument)
	}
	return roots, nil
}

// Burnup computes the daily snapshot series for roots from from to to.
// A zero from starts at the earliest root creation; a zero to ends today.
func (w *Workspace) Burnup(ctx context.Context, rootKeys []string, from, to time.Time) ([]report.PeriodSnapshot, error) {
	roots, err := w.Roots(rootKeys)
	if err != nil {
		return nil, err
	}

	if from.IsZero() {
		for _, r := range roots {
			if from.IsZero() || r.CreatedAt().Before(from) {
				from = r.CreatedAt()
			}
		}
	}
	if to.IsZero() {
		to = w.clock.Now()
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidArgument, to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	return report.DailySnapshotSeries(ctx, roots, w.index, from, to, report.SeriesOptions{
		Policy:  w.policy,
		Workers: w.defaults.Workers,
	})
}

// Periods buckets resolved issues into fixed windows ending at anchor.
// A zero anchor means now; lengthDays <= 0 uses the configured period length.
func (w *Workspace) Periods(keys []string, anchor time.Time, lengthDays int) report.PeriodResult {
	if anchor.IsZero() {
		anchor = w.clock.Now()
	}
	if lengthDays <= 0 {
		lengthDays = w.defaults.PeriodDays
	}
	return report.FixedPeriodBuckets(w.pool(keys), anchor, lengthDays, w.defaults.MaxPeriods)
}

// Histogram metrics.
const (
	MetricLead  = "lead"
	MetricCycle = "cycle"
	MetricAge   = "age"
)

// HistogramView is a duration histogram plus the summary of the same measures.
type HistogramView struct {
	Metric  string                 `json:"metric"`
	Buckets []report.TimeBucket    `json:"buckets"`
	Summary report.DurationSummary `json:"summary"`
}

// Title names the measured duration for charts.
func (v HistogramView) Title() string {
	switch v.Metric {
	case MetricCycle:
		return "Cycle Time (Working Days)"
	case MetricAge:
		return "WIP Age (Working Days)"
	default:
		return "Lead Time (Working Days)"
	}
}

// Histogram buckets issues by the working-day duration named by metric.
func (w *Workspace) Histogram(keys []string, metric, startStatus string, maxBucket int) (HistogramView, error) {
	metric = strings.ToLower(metric)
	var selector report.DurationSelector
	switch metric {
	case "", MetricLead:
		metric = MetricLead
		selector = report.LeadTimeDays()
	case MetricCycle:
		if startStatus == "" {
			return HistogramView{}, fmt.Errorf("%w: cycle time needs a start status", ErrInvalidArgument)
		}
		selector = report.CycleTimeDays(startStatus)
	case MetricAge:
		selector = report.AgeDays(w.clock)
	default:
		return HistogramView{}, fmt.Errorf("%w: unknown metric %q", ErrInvalidArgument, metric)
	}

	if maxBucket <= 0 {
		maxBucket = w.defaults.HistogramBuckets
	}
	pool := w.pool(keys)
	return HistogramView{
		Metric:  metric,
		Buckets: report.SizeHistogram(pool, selector, maxBucket),
		Summary: report.SummarizeDurations(pool, selector),
	}, nil
}

// Breakdown sums working hours per status across the selected issues.
func (w *Workspace) Breakdown(keys []string) report.StatusBreakdown {
	return report.TimeInStatusBreakdown(w.pool(keys), w.clock)
}

// SLA lists issues whose working time in status exceeds thresholdHours.
func (w *Workspace) SLA(keys []string, status string, thresholdHours int) ([]report.SLABreach, error) {
	if status == "" || thresholdHours <= 0 {
		return nil, fmt.Errorf("%w: status and a positive threshold are required", ErrInvalidArgument)
	}
	return report.SLABreaches(w.pool(keys), status, thresholdHours, w.clock), nil
}

func (w *Workspace) pool(keys []string) []*timeline.Entity {
	if len(keys) == 0 {
		return w.index.Entities()
	}
	return w.index.Select(keys)
}

// ParseInstant accepts a date (2006-01-02) or an RFC 3339 timestamp. Empty input is the zero time.
// A bare date means the last instant of that UTC day.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return report.EndOfDay(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither a date nor an RFC 3339 timestamp", ErrInvalidArgument, s)
	}
	return t.UTC(), nil
}

// ParseDate accepts a date or timestamp and truncates it to the start of its UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := ParseInstant(s)
	if err != nil || t.IsZero() {
		return t, err
	}
	return report.StartOfDay(t), nil
}
