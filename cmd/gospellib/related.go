package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRelatedCmd() *cobra.Command {
	var (
		uri       string
		subitemID int64
	)

	cmd := &cobra.Command{
		Use:   "related",
		Short: "List the audio, video and cross references attached to a subitem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			if uri == "" || subitemID == 0 {
				return fmt.Errorf("--uri and --subitem-id are required")
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			related, err := library.Related(context.Background(), uri, subitemID)
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, related)
			}

			valueWidth := flexWidth(10+8, 3)
			t := newTable(cmd, table.Row{"Kind", "ID", "Value"})
			for _, a := range related.Audio {
				t.AppendRow(table.Row{"audio", a.ID, wrapString(a.MediaURL, valueWidth)})
			}
			for _, v := range related.Video {
				t.AppendRow(table.Row{"video", v.ID, wrapString(v.MediaURL, valueWidth)})
			}
			for _, c := range related.Content {
				t.AppendRow(table.Row{"content", c.ID, truncate(c.Label+" "+c.OriginURI, valueWidth)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Item uri, e.g. /scriptures/bofm")
	cmd.Flags().Int64Var(&subitemID, "subitem-id", 0, "Subitem id from the subitems command")

	return cmd
}
