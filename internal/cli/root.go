// Package cli implements the tempoiq command line tool.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	// Overrides applied on top of the configuration file
	Host     string
	Port     int
	Insecure bool
	Timeout  time.Duration
	LogLevel string

	app *App
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tempoiq",
		Short: "Client for the TempoIQ time-series API",
		Long: `Query series, devices and rules of a TempoIQ database.

Credentials are read from the configuration file or from the
TEMPOIQ_KEY and TEMPOIQ_SECRET environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				opts.Format = "text"
				_ = newFormatter(opts, cmd).Error(msg, nil)
				return NewExitError(ExitCommandError, msg)
			}
			app, err := NewApp(opts)
			if err != nil {
				return newFormatter(opts, cmd).Fail(ExitCommandError, "failed to initialize", err)
			}
			opts.app = app
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Host, "host", "", "override api host")
	flags.IntVar(&opts.Port, "port", 0, "override api port")
	flags.BoolVar(&opts.Insecure, "insecure", false, "use http instead of https")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "override request timeout")
	flags.StringVar(&opts.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	cmd.AddCommand(NewDatabaseCommand(opts))
	cmd.AddCommand(NewSeriesCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewDeviceCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))

	closeAfterRun(opts, cmd)

	return cmd
}

// closeAfterRun wraps every RunE so the app is closed whether the command
// succeeds or fails. Cobra skips post-run hooks after a failed RunE.
func closeAfterRun(opts *RootOptions, cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		closeAfterRun(opts, sub)
	}
	if cmd.RunE == nil {
		return
	}

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer func() {
			if opts.app != nil {
				opts.app.Close(cmd.Context(), newFormatter(opts, cmd))
			}
		}()
		return run(cmd, args)
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
