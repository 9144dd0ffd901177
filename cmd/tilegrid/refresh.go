package main

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/mark3labs/tilegrid/internal/orchestrator"
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/spf13/cobra"
)

// renderWidth is the content width used when refreshing outside the TUI.
const renderWidth = 60

var refreshFlags struct {
	params []string
	widget string
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <dashboard>",
	Short: "Run every widget query and record the new content sizes",
	Long: `Refresh the widgets of a dashboard without opening the UI.

Auto height widgets take the height of their new results; widgets resized
by hand keep theirs. Failed queries leave the layout unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringArrayVarP(&refreshFlags.params, "param", "p", nil, "Parameter value as name=value (repeatable)")
	refreshCmd.Flags().StringVarP(&refreshFlags.widget, "widget", "w", "", "Refresh only this widget")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	values, err := parseParamValues(refreshFlags.params)
	if err != nil {
		return err
	}

	orch, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer stopRuntime(orch)

	ctx := orch.Context()
	st, err := orch.Store().LoadState(ctx, args[0])
	if err != nil {
		return err
	}
	for name, value := range values {
		if err := orch.Store().ParamSet(ctx, st.Dashboard.ID, name, value); err != nil {
			return err
		}
		st.Params[name] = value
	}

	outcomes, err := refreshWidgets(ctx, orch, st, refreshFlags.widget)
	if err != nil {
		return err
	}

	st, err = orch.Store().LoadState(ctx, st.Dashboard.ID)
	if err != nil {
		return err
	}
	snap := st.Snapshot(orch.Store().Options().Geometry)

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", o.WidgetID, o.Err)
		}
	}
	printLayout(cmd, snap)
	if failed > 0 {
		return fmt.Errorf("%d of %d widgets failed to refresh", failed, len(outcomes))
	}
	return nil
}

// refreshWidgets refreshes the widgets of st, or only widget id when set,
// and records their content metrics.
func refreshWidgets(ctx context.Context, orch *orchestrator.Orchestrator, st *store.State, id string) ([]refresh.Outcome, error) {
	targets := refresh.Targets(st, renderWidth)
	if id != "" {
		var only []refresh.Target
		for _, t := range targets {
			if t.WidgetID == id {
				only = append(only, t)
			}
		}
		if len(only) == 0 {
			return nil, fmt.Errorf("%w: %s", store.ErrWidgetNotFound, id)
		}
		targets = only
	}

	outcomes := orch.Pipeline().RefreshAll(ctx, targets, maps.Clone(st.Params))
	if err := refresh.Record(ctx, orch.Store(), st.Dashboard.ID, outcomes); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// parseParamValues parses name=value flag values.
func parseParamValues(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, s := range values {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", s)
		}
		out[name] = value
	}
	return out, nil
}
