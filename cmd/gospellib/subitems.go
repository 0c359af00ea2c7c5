package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSubitemsCmd() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "subitems",
		Short: "List the subitems of an item",
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

			subitems, err := library.Subitems(context.Background(), uri)
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, subitems)
			}

			uris := make([]string, 0, len(subitems))
			for _, s := range subitems {
				uris = append(uris, s.URI)
			}
			uriWidth := maxWidth(uris, 10)
			titleWidth := flexWidth(8+8+uriWidth, 4)

			t := newTable(cmd, table.Row{"ID", "Position", "URI", "Title"})
			for _, s := range subitems {
				t.AppendRow(table.Row{s.ID, s.Position, s.URI, truncate(s.Title, titleWidth)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Item uri, e.g. /scriptures/bofm")

	return cmd
}
