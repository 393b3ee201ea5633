// Package mcp exposes the flow reports as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"flowlens/internal/config"
	"flowlens/internal/timeline"
	"flowlens/internal/workspace"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const serverName = "flowlens"

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	Config *config.AppConfig
	// Workspace is an optional preloaded data set, e.g. from --input.
	Workspace *workspace.Workspace
	// Clock decides "now" for live reports. Nil uses the system clock.
	Clock   timeline.Clock
	Version string
}

// Server wraps the MCP SDK server with the report tools.
type Server struct {
	inner *mcpsdk.Server
	cfg   *config.AppConfig
	clock timeline.Clock

	mu     sync.RWMutex
	active *workspace.Workspace
	tools  []string
}

// NewServer creates a new MCP server with all report tools registered.
func NewServer(deps ServerDeps) *Server {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = timeline.SystemClock{}
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		inner:  mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version}, nil),
		cfg:    cfg,
		clock:  clock,
		active: deps.Workspace,
	}
	srv.registerTools()
	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)
	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	log.Info().Strs("tools", s.ListToolNames()).Msg("MCP server starting")
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: ToolImportExport, Description: importDescription}, s.handleImport)
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: ToolStatusAt, Description: statusDescription}, s.handleStatus)
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: ToolBurnup, Description: burnupDescription}, s.handleBurnup)
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: ToolPeriodBuckets, Description: periodsDescription}, s.handlePeriods)
	histogram := &mcpsdk.Tool{Name: ToolHistogram, Description: histogramDescription}
	if schema := histogramSchema(); schema != nil {
		histogram.InputSchema = schema
	}
	mcpsdk.AddTool(s.inner, histogram, s.handleHistogram)
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: ToolTimeInStatus, Description: timeInStatusDescription}, s.handleTimeInStatus)
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: ToolSLABreaches, Description: slaDescription}, s.handleSLA)

	s.tools = append(s.tools,
		ToolImportExport, ToolStatusAt, ToolBurnup, ToolPeriodBuckets,
		ToolHistogram, ToolTimeInStatus, ToolSLABreaches,
	)
}

func (s *Server) workspace() (*workspace.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil, ErrNoWorkspace
	}
	return s.active, nil
}

func (s *Server) setWorkspace(ws *workspace.Workspace) {
	s.mu.Lock()
	s.active = ws
	s.mu.Unlock()
}
