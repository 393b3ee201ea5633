package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"flowlens/internal/config"
	"flowlens/internal/jira"
	"flowlens/internal/logging"
	"flowlens/internal/workspace"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose  bool
	input    string
	sourceID string
	charts   bool
	format   string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "flowlens",
	Short: "flowlens reconstructs issue state over time from Jira change logs",
	Long: `flowlens replays Jira change logs to answer what was true about an issue at any instant,
measures working time on a Mon-Fri 09:00-17:00 UTC calendar, and turns that into burnup,
cumulative-flow, period and lead-time histogram reports. Without a subcommand it serves
the reports as MCP tools over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(logging.Options{Verbose: verbose}); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("charts") {
			cfg.EnableMermaidCharts = charts
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("flowlens starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command, cancelling on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&input, "input", "i", "", "Jira search-response export (expand=changelog); merged into the cache")
	rootCmd.PersistentFlags().StringVar(&sourceID, "source", "", "cache name (default: export file name)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", formatJSON, "output format: json or table")
	rootCmd.PersistentFlags().BoolVar(&charts, "charts", false, "append Mermaid charts (overrides ENABLE_MERMAID_CHARTS)")
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}

// openWorkspace loads --input (or the cache for --source) into a workspace.
func openWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	opts := workspace.Options{
		SourceID: sourceID,
		Input:    input,
		CacheDir: cfg.CacheDir,
		Reports:  cfg.Reports,
	}
	if input != "" {
		opts.Source = jira.NewFileSource(input)
	} else if sourceID == "" {
		return nil, fmt.Errorf("%w: pass --input or --source", workspace.ErrInvalidArgument)
	}
	return workspace.Open(ctx, opts)
}

// Output formats.
const (
	formatJSON  = "json"
	formatTable = "table"
)

// writeResult prints value as indented JSON, or as a table with --format table,
// followed by the chart when charts are enabled.
func writeResult(w io.Writer, value any, tbl, chart func() string) error {
	switch format {
	case formatTable:
		if tbl == nil {
			return fmt.Errorf("%w: no table rendering for this command", workspace.ErrInvalidArgument)
		}
		if _, err := fmt.Fprintln(w, tbl()); err != nil {
			return err
		}
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown format %q", workspace.ErrInvalidArgument, format)
	}

	if chart != nil && cfg.EnableMermaidCharts {
		if c := chart(); c != "" {
			_, err := fmt.Fprintln(w, c)
			return err
		}
	}
	return nil
}
