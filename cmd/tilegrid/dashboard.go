package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Create and list dashboards",
}

func init() {
	dashboardCmd.AddCommand(dashboardCreateCmd)
	dashboardCmd.AddCommand(dashboardListCmd)
}

var dashboardCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		d, err := orch.Store().DashboardCreate(orch.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{
			"id":   d.ID,
			"slug": d.Slug,
			"name": d.Name,
		})
	},
}

var dashboardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dashboards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		ctx := orch.Context()
		dashboards, err := orch.Store().Dashboards(ctx)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(dashboards))
		for _, d := range dashboards {
			st, err := orch.Store().LoadState(ctx, d.ID)
			if err != nil {
				return err
			}
			rows = append(rows, []string{d.Slug, d.Name, strconv.Itoa(st.Board.Len()), d.ID})
		}
		printTable(cmd, []string{"SLUG", "NAME", "WIDGETS", "ID"}, rows)
		return nil
	},
}
