package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gospelstudy/gospellib/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server exposing catalog and package reads over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, err := newLibrary(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			return mcp.NewServer(library, version).Run(ctx)
		},
	}

	return cmd
}
