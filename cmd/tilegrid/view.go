package main

import (
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <dashboard>",
	Short: "Open a dashboard in the terminal UI",
	Long: `Open a dashboard (ID or slug) full screen.

Press e to enter edit mode, then drag a widget's bottom border or use +/-
to resize it. Resized widgets keep their height when results change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		return orch.RunTUI(args[0])
	},
}
