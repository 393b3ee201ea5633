package report

import (
	"fmt"
	"sort"
	"time"

	"flowlens/internal/timeline"
)

const (
	// DefaultPeriodDays is the length of one sprint window.
	DefaultPeriodDays = 14
	// DefaultMaxPeriods caps how many windows are walked back from the anchor.
	DefaultMaxPeriods = 52
)

// PeriodBucket is a fixed-length window [Start, End) and the issues resolved in it.
type PeriodBucket struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
	Keys  []string  `json:"keys"`
}

// PeriodResult holds the buckets, most recent first, plus resolved issues
// older than the last window walked.
type PeriodResult struct {
	Buckets    []PeriodBucket `json:"buckets"`
	Unbucketed []string       `json:"unbucketed,omitempty"`
}

// FixedPeriodBuckets walks back from anchor in windows of lengthDays. An issue
// lands in the most recent window whose lower bound is strictly before its
// resolution and is then removed from the pool. Walking stops once the pool is
// empty or maxPeriods windows were produced. Unresolved issues are ignored.
func FixedPeriodBuckets(entities []*timeline.Entity, anchor time.Time, lengthDays, maxPeriods int) PeriodResult {
	if lengthDays <= 0 {
		lengthDays = DefaultPeriodDays
	}
	if maxPeriods <= 0 {
		maxPeriods = DefaultMaxPeriods
	}

	type candidate struct {
		key        string
		resolvedAt time.Time
	}
	var pool []candidate
	for _, e := range entities {
		if r := e.ResolvedAt(); r != nil {
			pool = append(pool, candidate{key: e.Key, resolvedAt: *r})
		}
	}

	result := PeriodResult{Buckets: []PeriodBucket{}}
	upper := anchor
	for i := 0; i < maxPeriods && len(pool) > 0; i++ {
		lower := upper.AddDate(0, 0, -lengthDays)
		bucket := PeriodBucket{
			Index: i,
			Start: lower,
			End:   upper,
			Label: fmt.Sprintf("%s - %s", lower.Format("2006-01-02"), upper.Format("2006-01-02")),
			Keys:  []string{},
		}

		remaining := pool[:0]
		for _, c := range pool {
			if lower.Before(c.resolvedAt) {
				bucket.Keys = append(bucket.Keys, c.key)
			} else {
				remaining = append(remaining, c)
			}
		}
		pool = remaining

		sort.Strings(bucket.Keys)
		result.Buckets = append(result.Buckets, bucket)
		upper = lower
	}

	for _, c := range pool {
		result.Unbucketed = append(result.Unbucketed, c.key)
	}
	sort.Strings(result.Unbucketed)

	return result
}
