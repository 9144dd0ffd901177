package main

import (
	"fmt"
	"strconv"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/orchestrator"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/spf13/cobra"
)

var widgetFlags struct {
	viz   string
	title string
	col   int
	width int
}

var moveFlags struct {
	col   int
	width int
}

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Add, resize and remove dashboard widgets",
}

func init() {
	widgetCmd.AddCommand(widgetAddCmd)
	widgetCmd.AddCommand(widgetAddTextCmd)
	widgetCmd.AddCommand(widgetResizeCmd)
	widgetCmd.AddCommand(widgetMoveCmd)
	widgetCmd.AddCommand(widgetRemoveCmd)

	for _, c := range []*cobra.Command{widgetAddCmd, widgetAddTextCmd} {
		c.Flags().StringVarP(&widgetFlags.title, "title", "t", "", "Widget title (default: query name)")
		c.Flags().IntVar(&widgetFlags.col, "col", 0, "First grid column")
		c.Flags().IntVar(&widgetFlags.width, "width", 0, "Width in grid columns (default: half the grid)")
	}
	widgetAddCmd.Flags().StringVar(&widgetFlags.viz, "viz", estimate.TypeTable, "Visualization: table, counter, chart")
	// Negative deltas are arguments, not flags.
	widgetResizeCmd.Flags().SetInterspersed(false)
	widgetMoveCmd.Flags().IntVar(&moveFlags.col, "col", 0, "First grid column")
	widgetMoveCmd.Flags().IntVar(&moveFlags.width, "width", 0, "Width in grid columns (default: keep the current width)")
}

var widgetAddCmd = &cobra.Command{
	Use:   "add <dashboard> <query>",
	Short: "Add a query widget",
	Long: `Add a widget showing a saved query. The query runs once so the
widget starts at the height of its results.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addWidget(cmd, args[0], store.WidgetAddParams{
			QueryID:       args[1],
			Visualization: widgetFlags.viz,
		})
	},
}

var widgetAddTextCmd = &cobra.Command{
	Use:   "add-text <dashboard> <markdown>",
	Short: "Add a markdown text widget",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addWidget(cmd, args[0], store.WidgetAddParams{
			Visualization: estimate.TypeText,
			Text:          args[1],
		})
	},
}

func addWidget(cmd *cobra.Command, dashboard string, params store.WidgetAddParams) error {
	params.Title = widgetFlags.title
	params.Col = widgetFlags.col
	params.Width = widgetFlags.width

	orch, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer stopRuntime(orch)

	ctx := orch.Context()
	w, err := orch.Store().WidgetAdd(ctx, dashboard, params)
	if err != nil {
		return err
	}

	st, err := orch.Store().LoadState(ctx, dashboard)
	if err != nil {
		return err
	}
	outcomes, err := refreshWidgets(ctx, orch, st, w.ID)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: first refresh failed: %v\n", o.Err)
		}
	}

	return printWidgetLayout(cmd, orch, dashboard, w.ID)
}

var widgetResizeCmd = &cobra.Command{
	Use:   "resize <dashboard> <widget> <deltaPx>",
	Short: "Resize a widget by a pixel delta",
	Long: `Resize a widget as if its bottom edge were dragged by deltaPx pixels
(negative shrinks). The height snaps to whole grid rows and the widget
keeps it from then on, whatever its results.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("deltaPx must be an integer: %w", err)
		}

		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		if _, err := orch.Store().WidgetResize(orch.Context(), args[0], args[1], delta); err != nil {
			return err
		}
		return printWidgetLayout(cmd, orch, args[0], args[1])
	},
}

var widgetMoveCmd = &cobra.Command{
	Use:   "move <dashboard> <widget>",
	Short: "Change the column span of a widget",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		if err := orch.Store().WidgetMove(orch.Context(), args[0], args[1], moveFlags.col, moveFlags.width); err != nil {
			return err
		}
		return printWidgetLayout(cmd, orch, args[0], args[1])
	},
}

var widgetRemoveCmd = &cobra.Command{
	Use:   "remove <dashboard> <widget>",
	Short: "Remove a widget",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := startRuntime(cmd)
		if err != nil {
			return err
		}
		defer stopRuntime(orch)

		if err := orch.Store().WidgetRemove(orch.Context(), args[0], args[1]); err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{"id": args[1], "removed": "true"})
	},
}

// printWidgetLayout prints the current layout of one widget as JSON.
func printWidgetLayout(cmd *cobra.Command, orch *orchestrator.Orchestrator, dashboard, id string) error {
	st, err := orch.Store().LoadState(orch.Context(), dashboard)
	if err != nil {
		return err
	}
	for _, e := range st.Snapshot(orch.Store().Options().Geometry).Widgets {
		if e.ID == id {
			return printJSON(cmd, e)
		}
	}
	return fmt.Errorf("%w: %s", store.ErrWidgetNotFound, id)
}
