package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"flowlens/internal/workspace"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Tool names.
const (
	ToolImportExport  = "import_export"
	ToolStatusAt      = "get_status_at"
	ToolBurnup        = "get_burnup"
	ToolPeriodBuckets = "get_period_buckets"
	ToolHistogram     = "get_duration_histogram"
	ToolTimeInStatus  = "get_time_in_status"
	ToolSLABreaches   = "get_sla_breaches"
)

// ErrNoWorkspace is returned by report tools before any export was imported.
var ErrNoWorkspace = errors.New("no data loaded: call " + ToolImportExport + " first")

const (
	importDescription = "Load a Jira search-response export (expand=changelog) and merge it into the local change-log cache. " +
		"Omit 'path' to reopen a previously cached source by 'source_id'. MUST be called before any report tool."
	statusDescription = "Reconstruct an issue's status at a past instant, whether it counted as finished or in scope then, " +
		"its full status timeline and working hours (Mon-Fri 09:00-17:00 UTC) accumulated per status. Omit 'at' for the live status."
	burnupDescription = "Daily burnup / cumulative-flow series for epics: per day, the children linked at the end of that UTC day, " +
		"how many were finished and how many were in scope. Omit 'roots' to use every issue with child membership history."
	periodsDescription = "Bucket resolved issues into fixed-length periods walking back from an anchor date (sprint-style throughput). " +
		"Issues older than the last period are listed as unbucketed."
	histogramDescription = "Histogram of working-day durations: metric 'lead' (created to resolved), 'cycle' (first entry into " +
		"'start_status' to resolved) or 'age' (created to now, open issues only). Issues without a measure land in 'No data'."
	timeInStatusDescription = "Working hours spent per status, summed across issues and per issue, measured up to resolution or now."
	slaDescription          = "Issues whose accumulated working hours in a status exceed a threshold, longest first."
)

// Input types (JSON schemas are inferred from the struct tags).

// ImportInput is the input schema for import_export.
type ImportInput struct {
	Path     string `json:"path,omitempty"      jsonschema:"path to the exported search response JSON"`
	SourceID string `json:"source_id,omitempty" jsonschema:"cache name (default: export file name without extension)"`
}

// StatusInput is the input schema for get_status_at.
type StatusInput struct {
	Key string `json:"key"          jsonschema:"issue key (e.g. PROJ-123)"`
	At  string `json:"at,omitempty" jsonschema:"date (2006-01-02, end of day) or RFC 3339 instant; omit for live status"`
}

// BurnupInput is the input schema for get_burnup.
type BurnupInput struct {
	Roots []string `json:"roots,omitempty" jsonschema:"epic keys to chart"`
	From  string   `json:"from,omitempty"  jsonschema:"first day (2006-01-02); default: earliest epic creation"`
	To    string   `json:"to,omitempty"    jsonschema:"last day (2006-01-02); default: today"`
}

// PeriodsInput is the input schema for get_period_buckets.
type PeriodsInput struct {
	Keys       []string `json:"keys,omitempty"        jsonschema:"restrict to these issue keys"`
	Anchor     string   `json:"anchor,omitempty"      jsonschema:"upper bound of the most recent period (2006-01-02); default: now"`
	LengthDays int      `json:"length_days,omitempty" jsonschema:"period length in calendar days (default: 14)"`
}

// HistogramInput is the input schema for get_duration_histogram.
type HistogramInput struct {
	Keys        []string `json:"keys,omitempty"         jsonschema:"restrict to these issue keys"`
	Metric      string   `json:"metric,omitempty"       jsonschema:"lead, cycle or age (default: lead)"`
	StartStatus string   `json:"start_status,omitempty" jsonschema:"status that starts the cycle clock (required for cycle)"`
	MaxBucket   int      `json:"max_bucket,omitempty"   jsonschema:"largest day threshold before the overflow bucket (default: 10)"`
}

// histogramSchema is the inferred HistogramInput schema with metric restricted to the known measures.
// A nil result lets AddTool infer the schema itself.
func histogramSchema() *jsonschema.Schema {
	schema, err := jsonschema.For[HistogramInput](nil)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolHistogram).Msg("Falling back to inferred input schema")
		return nil
	}
	if metric, ok := schema.Properties["metric"]; ok {
		metric.Enum = []any{workspace.MetricLead, workspace.MetricCycle, workspace.MetricAge}
	}
	return schema
}

// TimeInStatusInput is the input schema for get_time_in_status.
type TimeInStatusInput struct {
	Keys []string `json:"keys,omitempty" jsonschema:"restrict to these issue keys"`
}

// SLAInput is the input schema for get_sla_breaches.
type SLAInput struct {
	Keys           []string `json:"keys,omitempty"  jsonschema:"restrict to these issue keys"`
	Status         string   `json:"status"          jsonschema:"status to measure (e.g. In Review)"`
	ThresholdHours int      `json:"threshold_hours" jsonschema:"allowed working hours in the status"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content, followed by any non-empty charts.
func jsonResult(value any, charts ...string) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	content := []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}}
	for _, c := range charts {
		if c != "" {
			content = append(content, &mcpsdk.TextContent{Text: c})
		}
	}
	return &mcpsdk.CallToolResult{Content: content}, ToolOutput{Data: value}, nil
}
