package report

import (
	"fmt"

	"flowlens/internal/timeline"
)

// DefaultMaxBucket is the largest threshold of a size histogram.
const DefaultMaxBucket = 10

// BucketKind distinguishes the three shapes of histogram bucket.
type BucketKind string

const (
	// NoDataBucket collects issues without a measurable duration.
	NoDataBucket BucketKind = "none"
	// ThresholdBucket holds durations up to and including Threshold.
	ThresholdBucket BucketKind = "threshold"
	// OverflowBucket holds durations strictly above Threshold.
	OverflowBucket BucketKind = "overflow"
)

// TimeBucket is one bar of a lead-time histogram.
type TimeBucket struct {
	Label     string     `json:"label"`
	Kind      BucketKind `json:"kind"`
	Threshold int        `json:"threshold"`
	Keys      []string   `json:"keys"`
}

// Count returns the number of issues in the bucket.
func (b TimeBucket) Count() int { return len(b.Keys) }

// DurationSelector measures an issue in days. ok is false when the issue has
// no measurable duration.
type DurationSelector func(e *timeline.Entity) (days float64, ok bool)

// SizeHistogram partitions entities by the measured duration into maxBucket+2
// buckets: a no-data bucket, thresholds 1..maxBucket and an overflow bucket.
// An issue lands in the first threshold at or above its duration.
func SizeHistogram(entities []*timeline.Entity, selector DurationSelector, maxBucket int) []TimeBucket {
	if maxBucket <= 0 {
		maxBucket = DefaultMaxBucket
	}

	buckets := make([]TimeBucket, 0, maxBucket+2)
	buckets = append(buckets, TimeBucket{Label: "No data", Kind: NoDataBucket, Keys: []string{}})
	for n := 1; n <= maxBucket; n++ {
		buckets = append(buckets, TimeBucket{Label: dayLabel(n), Kind: ThresholdBucket, Threshold: n, Keys: []string{}})
	}
	buckets = append(buckets, TimeBucket{
		Label:     fmt.Sprintf("%d+ days", maxBucket),
		Kind:      OverflowBucket,
		Threshold: maxBucket,
		Keys:      []string{},
	})

	for _, e := range entities {
		days, ok := selector(e)
		idx := bucketIndex(days, ok, maxBucket)
		buckets[idx].Keys = append(buckets[idx].Keys, e.Key)
	}

	return buckets
}

// bucketIndex maps a measure to its position in the histogram slice.
func bucketIndex(days float64, ok bool, maxBucket int) int {
	if !ok {
		return 0
	}
	for n := 1; n <= maxBucket; n++ {
		if float64(n) >= days {
			return n
		}
	}
	return maxBucket + 1
}

func dayLabel(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
