package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jwulff/minutes/internal/mcpserver"
)

func NewMCPCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the session catalog to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := deps.App.Ledger()
			if err != nil {
				// Chunk statistics are optional.
				log.Printf("[MCP]: ledger unavailable: %v", err)
			}
			defer deps.App.Close()

			return mcpserver.New(deps.App.Catalog, ledger).ServeStdio()
		},
	}
}
