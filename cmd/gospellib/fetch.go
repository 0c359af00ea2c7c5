package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and cache the catalog and an item package",
		Long:  "Materialize the current catalog and the package of one item in the cache directory and print where they live.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			if uri == "" {
				return fmt.Errorf("--uri is required")
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			result, err := library.Fetch(context.Background(), uri)
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, result)
			}

			t := newTable(cmd, table.Row{"Field", "Value"})
			t.AppendRows([]table.Row{
				{"Catalog Version", result.CatalogVersion},
				{"Item", result.Item.ExternalID},
				{"Item Version", result.Item.Version},
				{"Path", result.Path},
				{"File ID", result.FileID},
			})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Item uri, e.g. /scriptures/bofm")

	return cmd
}
