package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tempoiq/internal/decoder"
	"tempoiq/internal/rule"
	"tempoiq/internal/series"
)

// NewRulesCommand creates the rules command group
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate alerting rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(rootOpts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Show a single rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesGet(rootOpts, cmd, args[0])
		},
	})

	cmd.AddCommand(newRulesUsageCommand(rootOpts))

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <dir>",
		Short: "Decode and validate rule files in a directory",
		Long: `Decode every .json file below the directory as a list of rules
(a JSON array or an object with a "data" array) and validate each rule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesValidate(rootOpts, cmd, args[0])
		},
	})

	return cmd
}

func runRulesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	rules, err := opts.app.Client.ListRules(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to list rules", err)
	}

	return formatter.Success(rules, func(w io.Writer) error {
		return printRuleTable(w, rules)
	})
}

func runRulesGet(opts *RootOptions, cmd *cobra.Command, key string) error {
	formatter := newFormatter(opts, cmd)

	r, err := opts.app.Client.GetRule(cmd.Context(), key)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to get rule", err)
	}

	return formatter.Success(r, func(w io.Writer) error {
		return printJSON(w, r)
	})
}

func newRulesUsageCommand(rootOpts *RootOptions) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "usage <key>",
		Short: "Show usage counters of a rule",
		Long: `Show partitions, datapoints and triggered actions of a rule per
timestamp. Without --start the last 7 days up to --end (default now) are
reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesUsage(rootOpts, cmd, args[0], start, end)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start time (ISO-8601)")
	cmd.Flags().StringVar(&end, "end", "", "end time (ISO-8601, default now)")

	return cmd
}

func runRulesUsage(opts *RootOptions, cmd *cobra.Command, key, startFlag, endFlag string) error {
	formatter := newFormatter(opts, cmd)

	start, end, err := timeRange(startFlag, endFlag, 7*24*time.Hour)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid time range", err)
	}

	usage, err := opts.app.Client.GetRuleUsage(cmd.Context(), key, start, end)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to get rule usage", err)
	}

	return formatter.Success(usage, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tPARTITIONS\tDATAPOINTS\tACTIONS")
		for _, u := range usage {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n",
				series.FormatTime(u.Timestamp), u.Partitions, u.Datapoints, u.ActionsTriggered)
		}
		return tw.Flush()
	})
}

// ValidationResult is the JSON output of rules validate
type ValidationResult struct {
	Rules    int               `json:"rules"`
	Valid    int               `json:"valid"`
	Replaced uint64            `json:"replaced,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

func runRulesValidate(opts *RootOptions, cmd *cobra.Command, dir string) error {
	formatter := newFormatter(opts, cmd)
	log := opts.app.Logger

	loader := rule.NewRulesLoader(decoder.New(decoder.WithLogger(log)), log)
	index, err := loader.LoadIndex(dir)
	if err != nil {
		opts.app.Metrics.IncDecodeErrors(decoder.ModeKeyedRuleList.String())
		opts.app.Stats.IncDecodeErrors()
		return formatter.Fail(ExitFailure, "failed to load rules", err)
	}
	rules := index.Rules()
	opts.app.Metrics.AddDecoded("rule", len(rules))
	opts.app.Stats.IncDecoded()

	result := ValidationResult{
		Rules:    len(rules),
		Replaced: index.GetStats().Replaced,
		Errors:   map[string]string{},
	}
	for _, r := range rules {
		if err := rule.Validate(r); err != nil {
			result.Errors[r.Key] = err.Error()
			continue
		}
		result.Valid++
	}

	if len(result.Errors) > 0 {
		return formatter.Fail(ExitFailure,
			fmt.Sprintf("%d of %d rule(s) invalid", len(result.Errors), result.Rules),
			errors.New(joinErrors(result.Errors)))
	}

	return formatter.Success(result, func(w io.Writer) error {
		if result.Replaced > 0 {
			fmt.Fprintf(w, "%d rule definition(s) replaced by a later file\n", result.Replaced)
		}
		_, err := fmt.Fprintf(w, "%d rule(s) valid\n", result.Valid)
		return err
	})
}

func printRuleTable(w io.Writer, rules []*rule.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tSTATUS\tALERT BY\tCONDITIONS\tACTION")
	for _, r := range rules {
		action := "-"
		if wh, ok := r.Action().(rule.Webhook); ok {
			action = wh.URL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Key, r.Name, r.Status, r.AlertBy, len(r.Conditions), action)
	}
	return tw.Flush()
}

func joinErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, errs[k]))
	}
	return strings.Join(parts, "; ")
}
