package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gospelstudy/gospellib/lib/record"
)

func newNodesCmd() *cobra.Command {
	var sections []int64

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the collections and items under library sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			if len(sections) == 0 {
				return fmt.Errorf("at least one --section is required")
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			nodes, err := library.Nodes(context.Background(), sections)
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, nodes)
			}

			titleWidth := flexWidth(10+8+8, 4)
			t := newTable(cmd, table.Row{"Kind", "Position", "ID", "Title"})
			for _, n := range nodes {
				var id int64
				switch n.Kind {
				case record.NodeCollection:
					id = n.Collection.ID
				case record.NodeItem:
					id = n.Item.ID
				}
				t.AppendRow(table.Row{string(n.Kind), n.Position, id, truncate(n.Title(), titleWidth)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&sections, "section", nil, "Library section id (repeatable)")

	return cmd
}
