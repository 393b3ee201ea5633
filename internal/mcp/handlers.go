package mcp

import (
	"context"
	"fmt"
	"time"

	"flowlens/internal/jira"
	"flowlens/internal/visuals"
	"flowlens/internal/workspace"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ImportSummary is returned by import_export.
type ImportSummary struct {
	SourceID string   `json:"sourceId"`
	Issues   int      `json:"issues"`
	Roots    []string `json:"roots"`
}

func (s *Server) handleImport(ctx context.Context, _ *mcpsdk.CallToolRequest, in ImportInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.Path == "" && in.SourceID == "" {
		return errorResult(fmt.Errorf("%w: path or source_id is required", workspace.ErrInvalidArgument))
	}

	opts := workspace.Options{
		SourceID: in.SourceID,
		Input:    in.Path,
		CacheDir: s.cfg.CacheDir,
		Reports:  s.cfg.Reports,
		Clock:    s.clock,
	}
	if in.Path != "" {
		opts.Source = jira.NewFileSource(in.Path)
	}

	ws, err := workspace.Open(ctx, opts)
	if err != nil {
		log.Error().Err(err).Str("path", in.Path).Msg("Import failed")
		return errorResult(err)
	}
	s.setWorkspace(ws)

	summary := ImportSummary{SourceID: ws.SourceID(), Issues: ws.Index().Len(), Roots: []string{}}
	if roots, err := ws.Roots(nil); err == nil {
		for _, r := range roots {
			summary.Roots = append(summary.Roots, r.Key)
		}
	}
	return jsonResult(summary)
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, in StatusInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ws, err := s.workspace()
	if err != nil {
		return errorResult(err)
	}
	at, err := workspace.ParseInstant(in.At)
	if err != nil {
		return errorResult(err)
	}

	view, err := ws.Status(in.Key, at)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(view)
}

func (s *Server) handleBurnup(ctx context.Context, _ *mcpsdk.CallToolRequest, in BurnupInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ws, err := s.workspace()
	if err != nil {
		return errorResult(err)
	}
	from, err := workspace.ParseDate(in.From)
	if err != nil {
		return errorResult(err)
	}
	to, err := workspace.ParseDate(in.To)
	if err != nil {
		return errorResult(err)
	}

	start := time.Now()
	series, err := ws.Burnup(ctx, in.Roots, from, to)
	if err != nil {
		return errorResult(err)
	}
	log.Debug().Int("days", len(series)).Dur("took", time.Since(start)).Msg("Burnup computed")

	return jsonResult(series, s.chart(func() string { return visuals.GenerateBurnupChart(series) }))
}

func (s *Server) handlePeriods(_ context.Context, _ *mcpsdk.CallToolRequest, in PeriodsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ws, err := s.workspace()
	if err != nil {
		return errorResult(err)
	}
	anchor, err := workspace.ParseDate(in.Anchor)
	if err != nil {
		return errorResult(err)
	}

	result := ws.Periods(in.Keys, anchor, in.LengthDays)
	return jsonResult(result, s.chart(func() string { return visuals.GeneratePeriodChart(result) }))
}

func (s *Server) handleHistogram(_ context.Context, _ *mcpsdk.CallToolRequest, in HistogramInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ws, err := s.workspace()
	if err != nil {
		return errorResult(err)
	}

	view, err := ws.Histogram(in.Keys, in.Metric, in.StartStatus, in.MaxBucket)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(view, s.chart(func() string {
		return visuals.GenerateHistogramChart(view.Buckets, view.Title())
	}))
}

func (s *Server) handleTimeInStatus(_ context.Context, _ *mcpsdk.CallToolRequest, in TimeInStatusInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ws, err := s.workspace()
	if err != nil {
		return errorResult(err)
	}

	breakdown := ws.Breakdown(in.Keys)
	return jsonResult(breakdown, s.chart(func() string { return visuals.GenerateTimeInStatusChart(breakdown) }))
}

func (s *Server) handleSLA(_ context.Context, _ *mcpsdk.CallToolRequest, in SLAInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ws, err := s.workspace()
	if err != nil {
		return errorResult(err)
	}

	breaches, err := ws.SLA(in.Keys, in.Status, in.ThresholdHours)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(breaches)
}

// chart renders only when Mermaid output is enabled.
func (s *Server) chart(render func() string) string {
	if !s.cfg.EnableMermaidCharts {
		return ""
	}
	return render()
}
