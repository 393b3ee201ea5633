// Package workspace loads tracker data into an entity index and answers the
// report queries shared by the CLI and the MCP server.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"flowlens/internal/changelog"
	"flowlens/internal/config"
	"flowlens/internal/jira"
	"flowlens/internal/timeline"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoData is returned when neither the export nor the cache held any issue.
	ErrNoData = errors.New("no issues loaded")
	// ErrUnknownKey is returned for an issue key that is not in the index.
	ErrUnknownKey = errors.New("unknown issue key")
	// ErrInvalidArgument flags a malformed query parameter.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Options describes where issue histories come from.
type Options struct {
	// Source is read and merged into the cache. Nil means cache only.
	Source jira.Source
	// SourceID names the cache file. Empty means SourceIDFor(Input).
	SourceID string
	// Input is the export path, used to derive SourceID.
	Input    string
	CacheDir string
	Reports  config.ReportDefaults
	Clock    timeline.Clock
}

// Workspace is one loaded data set plus the report defaults to apply to it.
type Workspace struct {
	sourceID string
	index    *timeline.Index
	policy   timeline.Policy
	defaults config.ReportDefaults
	clock    timeline.Clock
}

// Open merges the export (if any) into the change-log cache and indexes the result.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	sourceID := opts.SourceID
	if sourceID == "" {
		sourceID = SourceIDFor(opts.Input)
	}

	store := changelog.NewStore()
	if opts.CacheDir != "" {
		if err := store.Load(opts.CacheDir, sourceID); err != nil {
			return nil, fmt.Errorf("load cache for %s: %w", sourceID, err)
		}
	}

	if opts.Source != nil {
		dtos, err := opts.Source.FetchIssues(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch issues: %w", err)
		}
		histories, err := jira.MapIssues(dtos)
		if err != nil {
			return nil, err
		}
		store.Append(sourceID, histories)
		log.Debug().Str("source", sourceID).Int("fetched", len(histories)).Msg("Merged export into cache")

		if opts.CacheDir != "" {
			if err := store.Save(opts.CacheDir, sourceID); err != nil {
				log.Warn().Err(err).Str("source", sourceID).Msg("Failed to persist change-log cache")
			}
		}
	}

	if store.Count(sourceID) == 0 {
		return nil, fmt.Errorf("%w for source %s", ErrNoData, sourceID)
	}
	return New(sourceID, store.All(sourceID), opts.Reports, opts.Clock)
}

// New indexes histories directly, without touching the cache.
func New(sourceID string, histories []changelog.History, defaults config.ReportDefaults, clock timeline.Clock) (*Workspace, error) {
	index, err := timeline.NewIndex(histories)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeline.SystemClock{}
	}

	log.Info().Str("source", sourceID).Int("issues", index.Len()).Msg("Workspace ready")

	return &Workspace{
		sourceID: sourceID,
		index:    index,
		policy:   policyFor(defaults),
		defaults: defaults,
		clock:    clock,
	}, nil
}

// SourceIDFor derives a cache name from an export path: "exports/PROJ.json" -> "PROJ".
func SourceIDFor(path string) string {
	if path == "" {
		return "default"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SourceID returns the cache name of the loaded data set.
func (w *Workspace) SourceID() string { return w.sourceID }

// Index exposes the underlying entity index.
func (w *Workspace) Index() *timeline.Index { return w.index }

// Policy returns the terminal/excluded policy built from the defaults.
func (w *Workspace) Policy() timeline.Policy { return w.policy }

func policyFor(d config.ReportDefaults) timeline.Policy {
	if len(d.TerminalStatuses) == 0 && len(d.ExcludedStatuses) == 0 {
		return timeline.DefaultPolicy()
	}
	return timeline.NewPolicy(d.TerminalStatuses, d.ExcludedStatuses)
}
