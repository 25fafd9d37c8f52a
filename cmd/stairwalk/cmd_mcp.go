package main

import (
	"fmt"

	"github.com/nvandessel/stairwalk/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP tool server over stdio",
		Long: `Serve stairwalk as Model Context Protocol tools on stdin/stdout.

Tools:
  stairwalk_simulate  Run a simulation, optionally saving it
  stairwalk_history   List stored runs
  stairwalk_show      Show a stored run
  stairwalk_export    Export a stored run's walks (arrow or archive)

Logs go to stderr so they never mix with the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, events := newLoggers(cmd, cfg)
			defer events.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "stairwalk",
				Version:  version,
				Root:     root,
				Settings: cfg,
				Logger:   logger,
				Events:   events,
			})
			if err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}

			logger.Info("mcp server listening on stdio", "root", root)
			return server.Run(cmd.Context())
		},
	}
}
