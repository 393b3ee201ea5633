package report

import (
	"sort"
	"strings"

	"flowlens/internal/timeline"
)

// StatusBreakdown is working time spent per status across a set of issues.
type StatusBreakdown struct {
	Hours    map[string]int            `json:"hours"`
	PerIssue map[string]map[string]int `json:"perIssue"`
}

// TimeInStatusBreakdown sums AccumulatedTimeByStatus over entities, each
// measured up to its resolution or the clock.
func TimeInStatusBreakdown(entities []*timeline.Entity, clock timeline.Clock) StatusBreakdown {
	out := StatusBreakdown{
		Hours:    make(map[string]int),
		PerIssue: make(map[string]map[string]int, len(entities)),
	}
	for _, e := range entities {
		acc := e.AccumulatedTimeByStatus(e.AsOf(clock))
		out.PerIssue[e.Key] = acc
		for status, h := range acc {
			out.Hours[status] += h
		}
	}
	return out
}

// SLABreach is an issue that spent longer than allowed in a status.
type SLABreach struct {
	Key            string `json:"key"`
	Status         string `json:"status"`
	Hours          int    `json:"hours"`
	ThresholdHours int    `json:"thresholdHours"`
}

// SLABreaches lists issues whose accumulated working hours in status exceed
// thresholdHours, longest first.
func SLABreaches(entities []*timeline.Entity, status string, thresholdHours int, clock timeline.Clock) []SLABreach {
	breaches := []SLABreach{}
	for _, e := range entities {
		hours := 0
		for s, h := range e.AccumulatedTimeByStatus(e.AsOf(clock)) {
			if strings.EqualFold(s, status) {
				hours += h
			}
		}
		if hours > thresholdHours {
			breaches = append(breaches, SLABreach{Key: e.Key, Status: status, Hours: hours, ThresholdHours: thresholdHours})
		}
	}

	sort.Slice(breaches, func(i, j int) bool {
		if breaches[i].Hours != breaches[j].Hours {
			return breaches[i].Hours > breaches[j].Hours
		}
		return breaches[i].Key < breaches[j].Key
	})
	return breaches
}
