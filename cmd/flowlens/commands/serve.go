package commands

import (
	"context"
	"errors"

	"flowlens/internal/mcp"
	"flowlens/internal/workspace"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reports as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	var ws *workspace.Workspace
	if input != "" || sourceID != "" {
		var err error
		if ws, err = openWorkspace(ctx); err != nil {
			return err
		}
	}

	server := mcp.NewServer(mcp.ServerDeps{
		Config:    cfg,
		Workspace: ws,
		Version:   Version,
	})

	log.Info().Bool("preloaded", ws != nil).Msg("MCP server starting stdio loop")
	err := server.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
