package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tempoiq/internal/client"
	"tempoiq/internal/publish"
	"tempoiq/internal/series"
)

// NewSeriesCommand creates the series command group
func NewSeriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Inspect series",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeriesList(rootOpts, cmd)
		},
	})

	return cmd
}

func runSeriesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	list, err := opts.app.Client.GetSeries(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to list series", err)
	}

	return formatter.Success(list, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tID\tTAGS")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, s.ID, strings.Join(s.Tags, ","))
		}
		return tw.Flush()
	})
}

// ReadOptions holds flags of the read command
type ReadOptions struct {
	ByID     bool
	Start    string
	End      string
	Interval string
	Function string
	Publish  bool
}

// ReadResult is the JSON output of the read command
type ReadResult struct {
	Series    string             `json:"series"`
	Points    []series.DataPoint `json:"points"`
	Published int                `json:"published,omitempty"`
	Topic     string             `json:"topic,omitempty"`
}

// NewReadCommand creates the read command
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{}

	cmd := &cobra.Command{
		Use:   "read <series>",
		Short: "Read data points of a series",
		Long: `Read data points of a series between --start and --end.

The series is looked up by key unless --by-id is given. Without --start
the last 24 hours up to --end (default now) are read. With --publish each
point is forwarded to the configured MQTT or NATS broker.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(rootOpts, opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.ByID, "by-id", false, "look the series up by id")
	cmd.Flags().StringVar(&opts.Start, "start", "", "start time (ISO-8601)")
	cmd.Flags().StringVar(&opts.End, "end", "", "end time (ISO-8601, default now)")
	cmd.Flags().StringVar(&opts.Interval, "interval", "", "rollup interval, e.g. 1hour")
	cmd.Flags().StringVar(&opts.Function, "function", "", "rollup function, e.g. mean")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "forward points to the configured broker")

	return cmd
}

func runRead(rootOpts *RootOptions, opts *ReadOptions, cmd *cobra.Command, seriesVal string) error {
	formatter := newFormatter(rootOpts, cmd)
	app := rootOpts.app

	start, end, err := timeRange(opts.Start, opts.End, 24*time.Hour)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid time range", err)
	}

	seriesType := client.SeriesByKey
	if opts.ByID {
		seriesType = client.SeriesByID
	}

	points, err := app.Client.Read(cmd.Context(), seriesType, seriesVal, start, end, client.ReadOptions{
		Interval: opts.Interval,
		Function: opts.Function,
	})
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to read series", err)
	}

	result := ReadResult{Series: seriesVal, Points: points}

	if opts.Publish {
		pub, err := publish.New(&app.Config.Publish, app.Logger, app.Metrics)
		if err != nil {
			return formatter.Fail(ExitCommandError, "failed to connect publisher", err)
		}
		defer pub.Close()

		forwarder := publish.NewForwarder(pub, app.Config.Publish.Topic, app.Logger)
		result.Topic = forwarder.Topic(seriesVal)
		result.Published, err = forwarder.Forward(cmd.Context(), seriesVal, points)
		if err != nil {
			return formatter.Fail(ExitFailure, "failed to publish data points", err)
		}
	}

	return formatter.Success(result, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, dp := range points {
			value := "null"
			if dp.Value != nil {
				value = strconv.FormatFloat(*dp.Value, 'g', -1, 64)
			}
			fmt.Fprintf(tw, "%s\t%s\n", series.FormatTime(dp.TS), value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if opts.Publish {
			fmt.Fprintf(w, "published %d point(s) to %s\n", result.Published, result.Topic)
		}
		return nil
	})
}

// timeRange parses --start/--end. A missing end is now, a missing start
// is end minus window.
func timeRange(startFlag, endFlag string, window time.Duration) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if endFlag != "" {
		t, err := series.ParseTime(endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		end = t
	}

	start := end.Add(-window)
	if startFlag != "" {
		t, err := series.ParseTime(startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		start = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end is before start")
	}
	return start, end, nil
}
