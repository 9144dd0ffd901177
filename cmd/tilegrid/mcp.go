package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/tilegrid/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpFlags struct {
	addr  string
	width int
}

var mcpCmd = &cobra.Command{
	Use:   "mcp <dashboard>",
	Short: "Serve dashboard layout tools over MCP",
	Long: `Serve the dashboard-layout, widget-resize and widget-refresh tools of
one dashboard over MCP streamable HTTP until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		if _, err := orch.Store().ResolveDashboard(orch.Context(), args[0]); err != nil {
			return err
		}

		srv := mcpserver.New(orch.Store(), orch.Pipeline(), args[0],
			mcpserver.WithAddr(mcpFlags.addr),
			mcpserver.WithRenderWidth(mcpFlags.width),
		)
		if _, err := srv.Start(orch.Context()); err != nil {
			return err
		}
		defer func() { _ = srv.Stop() }()

		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on %s\n", srv.URL())

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-sigChan:
		case <-orch.Context().Done():
		}
		return nil
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpFlags.addr, "addr", "127.0.0.1:0", "Listen address")
	mcpCmd.Flags().IntVar(&mcpFlags.width, "width", renderWidth, "Content width used on refresh")
}
