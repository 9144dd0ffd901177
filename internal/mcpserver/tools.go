package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("dashboard-layout",
			mcp.WithDescription("Show every widget of the dashboard with its height mode, grid rows and pixel height"),
		),
		s.handleDashboardLayout,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("widget-resize",
			mcp.WithDescription("Resize a widget by dragging its bottom edge. The widget keeps the chosen height from then on"),
			mcp.WithString("widget_id", mcp.Required(),
				mcp.Description("Widget ID"),
			),
			mcp.WithNumber("delta_px", mcp.Required(),
				mcp.Description("Drag distance in dashboard pixels; negative shrinks"),
			),
		),
		s.handleWidgetResize,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("widget-refresh",
			mcp.WithDescription("Re-run widget queries with parameter values and resize auto-height widgets to fit"),
			mcp.WithString("widget_id",
				mcp.Description("Widget ID; all widgets when omitted"),
			),
			mcp.WithObject("params",
				mcp.Description("Parameter values by name, e.g. {\"count\": \"5\"}"),
			),
		),
		s.handleWidgetRefresh,
	)
}
