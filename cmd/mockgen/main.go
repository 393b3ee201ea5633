package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"flowlens/cmd/mockgen/engine"
	"flowlens/internal/changelog"
	"flowlens/internal/jira"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./exports", "Output directory for the generated export")
	cacheDir := flag.String("cache", "", "Also seed the change-log cache in this directory")
	sourceID := flag.String("source", "FLOWTEST", "Export and cache name")
	count := flag.Int("count", 200, "Number of stories to generate")
	epics := flag.Int("epics", 4, "Number of epics the stories link to")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Epics:        *epics,
		Now:          time.Now(),
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d, Epics: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, cfg.Epics, *outDir)

	resp := engine.Generate(cfg)
	path, err := engine.Save(*outDir, *sourceID, resp)
	if err != nil {
		fmt.Printf("Failed to save mock export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d issues to %s\n", resp.Total, path)

	if *cacheDir != "" {
		histories, err := jira.MapIssues(resp.Issues)
		if err != nil {
			fmt.Printf("Generated export does not map: %v\n", err)
			os.Exit(1)
		}
		store := changelog.NewStore()
		store.Append(*sourceID, histories)
		if err := store.Save(*cacheDir, *sourceID); err != nil {
			fmt.Printf("Failed to seed cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded cache %s with %d histories\n", *cacheDir, len(histories))
	}

	fmt.Println("Done.")
}
