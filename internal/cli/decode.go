package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tempoiq/internal/decoder"
)

// DecodeOptions holds flags of the decode command
type DecodeOptions struct {
	Mode string
}

// DecodeResult is the output of the decode command
type DecodeResult struct {
	Mode  string      `json:"mode"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// NewDecodeCommand creates the decode command
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an API payload offline",
		Long: fmt.Sprintf(`Decode a JSON payload into selectors, selections, rules, usage
or devices without contacting the API. The payload is read from the file
or from stdin when no file is given.

Modes: %s`, strings.Join(decoder.ModeNames(), ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runDecode(rootOpts, opts, cmd, path)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", decoder.ModeDefault.String(), "decode mode")

	return cmd
}

func runDecode(rootOpts *RootOptions, opts *DecodeOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(rootOpts, cmd)
	app := rootOpts.app

	mode, err := decoder.ParseMode(opts.Mode)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid mode", err)
	}

	data, err := readInput(cmd, path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to read input", err)
	}
	formatter.VerboseLog("decoding %d byte(s) in %s mode", len(data), mode)

	value, err := decoder.New(decoder.WithLogger(app.Logger)).Decode(data, mode)
	if err != nil {
		app.Metrics.IncDecodeErrors(mode.String())
		app.Stats.IncDecodeErrors()
		return formatter.Fail(ExitFailure, "failed to decode payload", err)
	}
	app.Metrics.AddDecoded(mode.String(), 1)
	app.Stats.IncDecoded()

	result := DecodeResult{
		Mode:  mode.String(),
		Type:  fmt.Sprintf("%T", value),
		Value: value,
	}

	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "%s\n", result.Type)
		return printJSON(w, value)
	})
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
