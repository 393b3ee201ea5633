package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"flowlens/internal/jira"
)

// jiraTime is the timestamp layout of Jira Cloud/DC changelog payloads.
const jiraTime = "2006-01-02T15:04:05.000-0700"

// Workflow is the status walk every generated story follows.
var Workflow = []string{"Open", "Refinement", "In Progress", "Done"}

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Count        int
	Epics        int
	Now          time.Time
	Seed         int64
}

// Generate builds a search response with epics and stories that link to them.
// Stories arrive one per day ending at cfg.Now and walk the workflow; chaos
// cancels some stories, drift re-links some stories to another epic.
func Generate(cfg GeneratorConfig) jira.SearchResponse {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	cfg.Now = cfg.Now.UTC()
	if cfg.Epics <= 0 {
		cfg.Epics = 1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	// We want the last arrival to be today (cfg.Now)
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	var issues []jira.IssueDTO
	for e := 0; e < cfg.Epics; e++ {
		epic := jira.IssueDTO{Key: fmt.Sprintf("EPIC-%d", e+1)}
		epic.Fields.IssueType.Name = "Epic"
		epic.Fields.Status.Name = "In Progress"
		epic.Fields.Created = tArrival.AddDate(0, 0, -1).Format(jiraTime)
		issues = append(issues, epic)
	}

	for i := 0; i < cfg.Count; i++ {
		key := fmt.Sprintf("FLOW-%d", i+1)
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)
		epicKey := fmt.Sprintf("EPIC-%d", i%cfg.Epics+1)

		story := jira.IssueDTO{Key: key, Changelog: &jira.ChangelogDTO{}}
		story.Fields.IssueType.Name = "Story"
		story.Fields.Created = arrival.Format(jiraTime)

		addHistory(&story, arrival.Add(time.Hour), jira.ItemDTO{Field: jira.FieldEpicLink, ToString: epicKey})
		if relink := arrival.Add(48 * time.Hour); cfg.Scenario == "drift" && cfg.Epics > 1 && relink.Before(cfg.Now) && rng.Float64() < 0.2 {
			moved := fmt.Sprintf("EPIC-%d", (i+1)%cfg.Epics+1)
			addHistory(&story, relink, jira.ItemDTO{Field: jira.FieldEpicLink, FromString: epicKey, ToString: moved})
		}

		total := sampleDuration(rng, cfg, i)
		status := Workflow[0]
		// Open -> Refinement at 15%, -> In Progress at 40%, -> Done at 100% of the duration
		for step, share := range []float64{0.15, 0.40, 1.0} {
			at := arrival.Add(time.Duration(total * share * 24 * float64(time.Hour)))
			if !at.Before(cfg.Now) {
				break
			}
			next := Workflow[step+1]
			cancelled := cfg.Scenario == "chaos" && step == 1 && rng.Float64() < 0.1
			if cancelled {
				next = "Cancelled"
			}

			addHistory(&story, at, jira.ItemDTO{Field: "status", FromString: status, ToString: next})
			status = next
			if next == "Done" || cancelled {
				story.Fields.ResolutionDate = at.Format(jiraTime)
				story.Fields.Resolution = &struct {
					Name string `json:"name"`
				}{Name: next}
				addHistory(&story, at, jira.ItemDTO{Field: "resolution", ToString: next})
				break
			}
		}
		story.Fields.Status.Name = status
		issues = append(issues, story)
	}

	return jira.SearchResponse{Total: len(issues), Issues: issues}
}

func addHistory(dto *jira.IssueDTO, at time.Time, item jira.ItemDTO) {
	dto.Changelog.Histories = append(dto.Changelog.Histories, jira.HistoryDTO{
		Created: at.Format(jiraTime),
		Items:   []jira.ItemDTO{item},
	})
}

// sampleDuration returns the total cycle duration of story i in days.
func sampleDuration(rng *rand.Rand, cfg GeneratorConfig, i int) float64 {
	k, lambda := 2.5, 9.5 // Mild: ~5 day In Progress residency
	switch cfg.Scenario {
	case "chaos":
		k = 0.8
		if cfg.Distribution == "weibull" {
			lambda = 12.0
		}
	case "drift":
		ratio := float64(i) / float64(max(cfg.Count, 1))
		k = 2.5 - (1.7 * ratio)
		lambda = 9.5 + (2.5 * ratio)
	}

	if cfg.Distribution == "weibull" {
		return weibullSample(rng, k, lambda)
	}

	// Uniform baseline: 6-11 days
	d := 6.0 + rng.Float64()*5.0
	if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
		d += 10 + rng.Float64()*15
	}
	return d
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the search response to <outDir>/<sourceID>.json and returns the path.
func Save(outDir, sourceID string, resp jira.SearchResponse) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(outDir, sourceID+".json")
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0644)
}
