package commands

import (
	"flowlens/internal/visuals"
	"flowlens/internal/workspace"

	"github.com/spf13/cobra"
)

var (
	atFlag        string
	fromFlag      string
	toFlag        string
	rootsFlag     []string
	anchorFlag    string
	lengthFlag    int
	keysFlag      []string
	metricFlag    string
	startFlag     string
	maxBucketFlag int
	thresholdFlag int
)

var statusCmd = &cobra.Command{
	Use:   "status KEY",
	Short: "Show an issue's status at an instant (live when --at is omitted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := workspace.ParseInstant(atFlag)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		view, err := ws.Status(args[0], at)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), view, func() string {
			return visuals.StatusTable(view.Key, view.Status, view.Timeline, view.HoursByStatus)
		}, nil)
	},
}

var burnupCmd = &cobra.Command{
	Use:   "burnup",
	Short: "Daily burnup / cumulative-flow series for epics",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := workspace.ParseDate(fromFlag)
		if err != nil {
			return err
		}
		to, err := workspace.ParseDate(toFlag)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		series, err := ws.Burnup(cmd.Context(), rootsFlag, from, to)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), series,
			func() string { return visuals.BurnupTable(series) },
			func() string { return visuals.GenerateBurnupChart(series) })
	},
}

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Bucket resolved issues into fixed periods walking back from an anchor",
	RunE: func(cmd *cobra.Command, args []string) error {
		anchor, err := workspace.ParseDate(anchorFlag)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		result := ws.Periods(keysFlag, anchor, lengthFlag)
		return writeResult(cmd.OutOrStdout(), result,
			func() string { return visuals.PeriodTable(result) },
			func() string { return visuals.GeneratePeriodChart(result) })
	},
}

var histogramCmd = &cobra.Command{
	Use:   "histogram",
	Short: "Histogram of working-day lead, cycle or age durations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		view, err := ws.Histogram(keysFlag, metricFlag, startFlag, maxBucketFlag)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), view,
			func() string { return visuals.HistogramTable(view.Buckets, view.Summary) },
			func() string { return visuals.GenerateHistogramChart(view.Buckets, view.Title()) })
	},
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Working hours spent per status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		breakdown := ws.Breakdown(keysFlag)
		return writeResult(cmd.OutOrStdout(), breakdown,
			func() string { return visuals.BreakdownTable(breakdown) },
			func() string { return visuals.GenerateTimeInStatusChart(breakdown) })
	},
}

var slaCmd = &cobra.Command{
	Use:   "sla STATUS",
	Short: "Issues whose working time in STATUS exceeds --threshold hours",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		breaches, err := ws.SLA(keysFlag, args[0], thresholdFlag)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), breaches, func() string { return visuals.SLATable(breaches) }, nil)
	},
}

func init() {
	statusCmd.Flags().StringVar(&atFlag, "at", "", "date (2006-01-02, end of day) or RFC 3339 instant")

	burnupCmd.Flags().StringVar(&fromFlag, "from", "", "first day (default: earliest epic creation)")
	burnupCmd.Flags().StringVar(&toFlag, "to", "", "last day (default: today)")
	burnupCmd.Flags().StringSliceVar(&rootsFlag, "roots", nil, "epic keys (default: every issue with children)")

	periodsCmd.Flags().StringVar(&anchorFlag, "anchor", "", "upper bound of the most recent period (default: now)")
	periodsCmd.Flags().IntVar(&lengthFlag, "length", 0, "period length in days (default: FLOWLENS_PERIOD_DAYS)")

	histogramCmd.Flags().StringVar(&metricFlag, "metric", workspace.MetricLead, "lead, cycle or age")
	histogramCmd.Flags().StringVar(&startFlag, "start-status", "", "status that starts the cycle clock")
	histogramCmd.Flags().IntVar(&maxBucketFlag, "max-bucket", 0, "largest day threshold (default: FLOWLENS_HISTOGRAM_BUCKETS)")

	slaCmd.Flags().IntVar(&thresholdFlag, "threshold", 40, "allowed working hours")

	for _, c := range []*cobra.Command{periodsCmd, histogramCmd, breakdownCmd, slaCmd} {
		c.Flags().StringSliceVar(&keysFlag, "keys", nil, "restrict to these issue keys")
	}

	rootCmd.AddCommand(statusCmd, burnupCmd, periodsCmd, histogramCmd, breakdownCmd, slaCmd)
}
