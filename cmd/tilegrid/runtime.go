package main

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/tilegrid/internal/config"
	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/mark3labs/tilegrid/internal/orchestrator"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/viz"
	"github.com/spf13/cobra"
)

// startRuntime loads the configuration and starts the runtime. Callers must
// Stop the returned orchestrator.
func startRuntime(cmd *cobra.Command) (*orchestrator.Orchestrator, error) {
	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}

	orch, err := orchestrator.New(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if err := orch.Start(); err != nil {
		return nil, err
	}
	return orch, nil
}

// stopRuntime stops orch and logs shutdown failures.
func stopRuntime(orch *orchestrator.Orchestrator) {
	if err := orch.Stop(); err != nil {
		logger.Error("Shutdown failed: %v", err)
	}
}

// printJSON writes v as a single JSON line for scripting.
func printJSON(cmd *cobra.Command, v any) error {
	output, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return err
}

// printTable writes rows as a bordered table.
func printTable(cmd *cobra.Command, headers []string, rows [][]string) {
	content := viz.Table(&query.Result{Columns: headers, Rows: rows}, 0)
	fmt.Fprintln(cmd.OutOrStdout(), content.Body)
}
