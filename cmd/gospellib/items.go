package main

import (
	"context"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gospelstudy/gospellib/lib/record"
)

func newItemsCmd() *cobra.Command {
	var sections []int64

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List catalog items",
		Long:  "List every item in the catalog ordered by external id, or the items of the given sections ordered by position.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			var sectionIDs []int64
			if cmd.Flags().Changed("section") {
				sectionIDs = sections
			}
			items, err := library.Items(context.Background(), sectionIDs)
			if err != nil {
				return err
			}

			if globals.format == "json" {
				return outputJSON(cmd, items)
			}
			outputItemsTable(cmd, items)
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&sections, "section", nil, "Library section id (repeatable)")

	return cmd
}

func outputItemsTable(cmd *cobra.Command, items []record.Item) {
	uris := make([]string, 0, len(items))
	for _, item := range items {
		uris = append(uris, item.URI)
	}
	uriWidth := maxWidth(uris, 10)
	if uriWidth > 60 {
		uriWidth = 60
	}
	titleWidth := flexWidth(8+uriWidth+7, 4)

	t := newTable(cmd, table.Row{"ID", "URI", "Title", "Version"})
	for _, item := range items {
		title := item.Title
		if item.Obsolete {
			title += " (obsolete)"
		}
		t.AppendRow(table.Row{
			strconv.FormatInt(item.ID, 10),
			wrapString(item.URI, uriWidth),
			truncate(title, titleWidth),
			item.Version,
		})
	}
	t.Render()
}
