package tui

import (
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/store"
)

// DashboardLoadedMsg carries the replayed dashboard.
type DashboardLoadedMsg struct {
	State *store.State
	Err   error
}

// ContentRefreshedMsg is sent when a widget refresh completes.
type ContentRefreshedMsg struct {
	Outcome refresh.Outcome
}

// EventMsg carries a store event published by any process.
type EventMsg struct {
	Event store.Event
}

// ConnectionStatusMsg is sent when NATS connection status changes.
type ConnectionStatusMsg struct {
	Connected bool
}

// ApplyParamsMsg is sent when the user applies the parameter bar.
type ApplyParamsMsg struct {
	Values map[string]string
}
