package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var catalog bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the gospellib version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "gospellib %s\n", version); err != nil {
				return err
			}
			if !catalog {
				return nil
			}

			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}
			current, err := library.CatalogVersion(context.Background())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "catalog %d\n", current)
			return err
		},
	}

	cmd.Flags().BoolVar(&catalog, "catalog", false, "Also resolve the published catalog version")

	return cmd
}
