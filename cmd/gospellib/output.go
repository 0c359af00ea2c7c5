package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(cmd *cobra.Command, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// flexWidth is what remains of the terminal for the one free-text column
// once the fixed columns and borders are accounted for.
func flexWidth(fixed, columns int) int {
	width := getTerminalWidth() - fixed - columns*3
	if width < 20 {
		width = 20
	}
	return width
}

// wrapString breaks s into lines no wider than width terminal columns.
func wrapString(s string, width int) string {
	s = strings.TrimSpace(s)
	if width < 2 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Wrap(s, width)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(strings.TrimSpace(s), width, "...")
}

// maxWidth returns the widest display width among values, at least floor.
func maxWidth(values []string, floor int) int {
	width := floor
	for _, v := range values {
		if w := runewidth.StringWidth(v); w > width {
			width = w
		}
	}
	return width
}
