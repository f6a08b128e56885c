package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"tempoiq/internal/device"
)

// NewDeviceCommand creates the device command group
func NewDeviceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect devices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Show a device and its sensors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeviceGet(rootOpts, cmd, args[0])
		},
	})

	return cmd
}

func runDeviceGet(opts *RootOptions, cmd *cobra.Command, key string) error {
	formatter := newFormatter(opts, cmd)

	dev, err := opts.app.Client.GetDevice(cmd.Context(), key)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to get device", err)
	}

	return formatter.Success(dev, func(w io.Writer) error {
		return printDevice(w, dev)
	})
}

func printDevice(w io.Writer, dev *device.Device) error {
	fmt.Fprintf(w, "device %s", dev.Key)
	if dev.Name != "" {
		fmt.Fprintf(w, " (%s)", dev.Name)
	}
	fmt.Fprintln(w)
	printAttributes(w, "  ", dev.Attributes)

	for _, s := range dev.Sensors {
		fmt.Fprintf(w, "  sensor %s", s.Key)
		if s.Name != "" {
			fmt.Fprintf(w, " (%s)", s.Name)
		}
		fmt.Fprintln(w)
		printAttributes(w, "    ", s.Attributes)
	}
	return nil
}

func printAttributes(w io.Writer, indent string, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s=%s\n", indent, k, attrs[k])
	}
}
