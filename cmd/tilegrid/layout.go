package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Show, export and compare dashboard layouts",
}

func init() {
	layoutCmd.AddCommand(layoutShowCmd)
	layoutCmd.AddCommand(layoutExportCmd)
	layoutCmd.AddCommand(layoutDiffCmd)
}

var layoutShowCmd = &cobra.Command{
	Use:   "show <dashboard>",
	Short: "Print the widget heights of a dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, args[0])
		if err != nil {
			return err
		}
		printLayout(cmd, snap)
		return nil
	},
}

var layoutExportCmd = &cobra.Command{
	Use:   "export <dashboard> <file>",
	Short: "Write the layout of a dashboard as YAML",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot(cmd, args[0])
		if err != nil {
			return err
		}
		data, err := snap.YAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0644); err != nil {
			return fmt.Errorf("writing layout: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Layout of %s written to %s\n", snap.Slug, args[1])
		return nil
	},
}

var layoutDiffCmd = &cobra.Command{
	Use:   "diff <dashboard> <file>",
	Short: "Compare an exported layout with the current one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading layout: %w", err)
		}
		before, err := store.ParseSnapshot(data)
		if err != nil {
			return err
		}

		after, err := loadSnapshot(cmd, args[0])
		if err != nil {
			return err
		}

		diff, err := store.DiffSnapshots(before, after)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Layouts match.")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
		return nil
	},
}

func loadSnapshot(cmd *cobra.Command, dashboard string) (store.LayoutSnapshot, error) {
	orch, err := startRuntime(cmd)
	if err != nil {
		return store.LayoutSnapshot{}, err
	}
	defer stopRuntime(orch)

	st, err := orch.Store().LoadState(orch.Context(), dashboard)
	if err != nil {
		return store.LayoutSnapshot{}, err
	}
	return st.Snapshot(orch.Store().Options().Geometry), nil
}

// printLayout prints one table row per widget.
func printLayout(cmd *cobra.Command, snap store.LayoutSnapshot) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d columns, %d rows\n", snap.Dashboard, snap.Columns, snap.Rows)
	rows := make([][]string, 0, len(snap.Widgets))
	for _, e := range snap.Widgets {
		rows = append(rows, []string{
			e.ID,
			e.Title,
			e.Visualization,
			e.Mode,
			strconv.Itoa(e.GridHeight),
			strconv.Itoa(e.Pixels),
			fmt.Sprintf("%d+%d", e.Col, e.Width),
		})
	}
	printTable(cmd, []string{"ID", "TITLE", "VIZ", "MODE", "ROWS", "PIXELS", "COLUMNS"}, rows)
}
