package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/store"
)

// handleDashboardLayout lists the current layout.
func (s *Server) handleDashboardLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.LoadState(ctx, s.dashboard)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load dashboard: %v", err)), nil
	}
	return mcp.NewToolResultText(formatLayout(st.Snapshot(s.store.Options().Geometry))), nil
}

// handleWidgetResize applies a manual resize.
func (s *Server) handleWidgetResize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultText("error: no arguments provided"), nil
	}

	id, ok := args["widget_id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultText("error: missing 'widget_id' parameter"), nil
	}
	// JSON numbers come as float64
	delta, ok := args["delta_px"].(float64)
	if !ok {
		return mcp.NewToolResultText("error: missing or non-numeric 'delta_px' parameter"), nil
	}

	rows, err := s.store.WidgetResize(ctx, s.dashboard, id, int(delta))
	if errors.Is(err, store.ErrWidgetNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("error: widget %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	px := s.store.Options().Geometry.ToPixels(rows)
	return mcp.NewToolResultText(fmt.Sprintf("Widget %s resized to %d rows (%dpx), height mode manual", id, rows, px)), nil
}

// handleWidgetRefresh re-runs one or all widgets and records their content.
func (s *Server) handleWidgetRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	st, err := s.store.LoadState(ctx, s.dashboard)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to load dashboard: %v", err)), nil
	}

	params := make(map[string]string, len(st.Params))
	for k, v := range st.Params {
		params[k] = v
	}
	if raw, ok := args["params"].(map[string]any); ok {
		for name, v := range raw {
			value := fmt.Sprint(v)
			if err := s.store.ParamSet(ctx, st.Dashboard.ID, name, value); err != nil {
				return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
			}
			params[name] = value
		}
	}

	targets := refresh.Targets(st, s.width)
	if id, ok := args["widget_id"].(string); ok && id != "" {
		var only []refresh.Target
		for _, t := range targets {
			if t.WidgetID == id {
				only = append(only, t)
			}
		}
		if len(only) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("error: widget %s not found", id)), nil
		}
		targets = only
	}

	outcomes := s.pipeline.RefreshAll(ctx, targets, params)
	if err := refresh.Record(ctx, s.store, st.Dashboard.ID, outcomes); err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: %v", err)), nil
	}

	st, err = s.store.LoadState(ctx, s.dashboard)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: failed to reload dashboard: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Refreshed %d widget(s)", len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(&b, "\n  %s: error: %v", o.WidgetID, o.Err)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(formatLayout(st.Snapshot(s.store.Options().Geometry)))
	return mcp.NewToolResultText(b.String()), nil
}

func formatLayout(snap store.LayoutSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dashboard %s (%d columns, %d rows)", snap.Slug, snap.Columns, snap.Rows)
	if len(snap.Widgets) == 0 {
		b.WriteString("\n  no widgets")
	}
	for _, w := range snap.Widgets {
		fmt.Fprintf(&b, "\n  %s [%s] %q: %s, %d rows, %dpx, col %d width %d row %d",
			w.ID, w.Visualization, w.Title, w.Mode, w.GridHeight, w.Pixels, w.Col, w.Width, w.Row)
	}
	return b.String()
}
