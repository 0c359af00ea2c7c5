package main

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newLanguagesCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List languages",
		Long:  "List the languages recorded in the catalog, or with --remote every language the CDN publishes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			if remote {
				languages, err := library.RemoteLanguages(ctx)
				if err != nil {
					return err
				}
				if globals.format == "json" {
					return outputJSON(cmd, languages)
				}
				t := newTable(cmd, table.Row{"ID", "ISO 639-3", "BCP 47", "Code", "Name"})
				for _, l := range languages {
					t.AppendRow(table.Row{l.ID, l.ISO639_3, l.BCP47, l.VendorCode, l.NativeName})
				}
				t.Render()
				return nil
			}

			languages, err := library.Languages(ctx)
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, languages)
			}
			t := newTable(cmd, table.Row{"ID", "ISO 639-3", "BCP 47", "Code", "Name", "Root Collection"})
			for _, l := range languages {
				t.AppendRow(table.Row{l.ID, l.ISO639_3, l.BCP47, l.VendorCode, l.NativeName, l.RootCollectionID})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "List languages from the CDN's languages.json")

	return cmd
}
