package tui

import (
	"context"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/store"
)

// Store is the part of the dashboard store the TUI uses.
type Store interface {
	LoadState(ctx context.Context, ref string) (*store.State, error)
	WidgetResizeTo(ctx context.Context, dashboardID, widgetID string, rows int) error
	WidgetContent(ctx context.Context, dashboardID, widgetID string, m estimate.Metrics) error
	ParamSet(ctx context.Context, dashboardID, name, value string) error
}

// Refresher runs one widget refresh.
type Refresher interface {
	Refresh(ctx context.Context, t refresh.Target, params map[string]string) refresh.Outcome
}
