package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewDatabaseCommand creates the database command group
func NewDatabaseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Manage databases",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create a database and print its credentials",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runDatabaseCreate(rootOpts, cmd, name)
		},
	})

	return cmd
}

func runDatabaseCreate(opts *RootOptions, cmd *cobra.Command, name string) error {
	formatter := newFormatter(opts, cmd)

	db, err := opts.app.Client.CreateDatabase(cmd.Context(), name)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to create database", err)
	}

	return formatter.Success(db, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "key:    %s\nsecret: %s\n", db.Key, db.Secret)
		return err
	})
}
