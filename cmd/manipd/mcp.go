package main

import (
	"strings"

	"github.com/aretw0/manipd"
	"github.com/aretw0/manipd/internal/server"
	mcpAdapter "github.com/aretw0/manipd/pkg/adapters/mcp"
	"github.com/aretw0/manipd/pkg/manipulation"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the manipulation tools over MCP on stdio",
	Long: `Starts a manipulation service on a fresh problem registry and serves
it to a local agent (e.g. Claude Desktop) over Standard Input/Output.
Logs go to stderr so stdout carries JSON-RPC only.

To serve MCP over the network next to the HTTP front-ends, configure an
"mcp" extension for 'manipd serve' instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadLogger(cmd)
		if err != nil {
			return err
		}
		version := strings.TrimSpace(manipd.Version)

		s, err := server.New(cfg, server.WithLogger(logger), server.WithVersion(version))
		if err != nil {
			return err
		}
		svc := s.NewManipulation(manipulation.WithName(server.KindMCP))
		logger.Info("Starting manipd MCP server (stdio)")
		return mcpAdapter.NewServer(svc, version, mcpAdapter.WithLogger(logger)).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
