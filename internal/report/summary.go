package report

import (
	"math"
	"slices"

	"flowlens/internal/timeline"
)

// DurationSummary condenses the measured durations behind a histogram.
// Entities without a measure only count towards Missing.
type DurationSummary struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	P85     float64 `json:"p85"`
	P95     float64 `json:"p95"`
	Max     float64 `json:"max"`
}

// SummarizeDurations measures every entity with selector and reports the central
// tendency and tail of the measured values.
func SummarizeDurations(entities []*timeline.Entity, selector DurationSelector) DurationSummary {
	var values []float64
	out := DurationSummary{}
	for _, e := range entities {
		d, ok := selector(e)
		if !ok {
			out.Missing++
			continue
		}
		values = append(values, d)
	}
	if len(values) == 0 {
		return out
	}

	// Work on a sorted copy; percentiles use nearest rank
	slices.Sort(values)
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	out.Count = len(values)
	out.Mean = sum / float64(len(values))
	out.Median = median(values)
	out.P85 = percentile(values, 0.85)
	out.P95 = percentile(values, 0.95)
	out.Max = values[len(values)-1]
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p * float64(len(sorted))))
	return sorted[max(rank, 1)-1]
}
