package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gospelstudy/gospellib/lib/catalog"
)

func newItemCmd() *cobra.Command {
	var (
		uri string
		id  int64
	)

	cmd := &cobra.Command{
		Use:   "item",
		Short: "Show one catalog item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			if (uri == "") == (id == 0) {
				return fmt.Errorf("exactly one of --uri or --id is required")
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			item, err := library.Item(context.Background(), catalog.ItemQuery{ID: id, URI: uri})
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, item)
			}

			renditions := make([]string, 0, len(item.CoverRenditions))
			for _, r := range item.CoverRenditions {
				renditions = append(renditions, fmt.Sprintf("%dx%d %s", r.Width, r.Height, r.URL))
			}

			t := newTable(cmd, table.Row{"Field", "Value"})
			t.AppendRows([]table.Row{
				{"ID", item.ID},
				{"External ID", item.ExternalID},
				{"URI", item.URI},
				{"Title", item.Title},
				{"Version", item.Version},
				{"Language ID", item.LanguageID},
				{"Category ID", item.CategoryID},
				{"Obsolete", item.Obsolete},
				{"Covers", strings.Join(renditions, "\n")},
			})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Item uri, e.g. /scriptures/bofm")
	cmd.Flags().Int64Var(&id, "id", 0, "Catalog item id")

	return cmd
}
