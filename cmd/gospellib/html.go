package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHTMLCmd() *cobra.Command {
	var (
		uri       string
		subitem   string
		paragraph string
	)

	cmd := &cobra.Command{
		Use:   "html",
		Short: "Print the HTML of a subitem or one of its paragraphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			if uri == "" || subitem == "" {
				return fmt.Errorf("--uri and --subitem are required")
			}
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			html, err := library.HTML(context.Background(), uri, subitem, paragraph)
			if err != nil {
				return err
			}
			if globals.format == "json" {
				return outputJSON(cmd, map[string]string{"html": html})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
			return err
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Item uri, e.g. /scriptures/bofm")
	cmd.Flags().StringVar(&subitem, "subitem", "", "Subitem uri, e.g. /scriptures/bofm/1-ne/11")
	cmd.Flags().StringVar(&paragraph, "paragraph", "", "Paragraph id, e.g. p17 (whole subitem when omitted)")

	return cmd
}
