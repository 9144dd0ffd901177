package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/tilegrid/internal/logger"
)

const fileName = "ui-state.json"

// UIState holds UI preferences that carry across runs, keyed by dashboard ID.
type UIState struct {
	Dashboards map[string]*DashboardState `json:"dashboards"`
}

// DashboardState is what the TUI remembers about one dashboard.
type DashboardState struct {
	FocusedWidget string            `json:"focused_widget,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
}

// DefaultUIState returns an empty UI state.
func DefaultUIState() *UIState {
	return &UIState{Dashboards: make(map[string]*DashboardState)}
}

// Dashboard returns the state for id, creating it if needed.
func (s *UIState) Dashboard(id string) *DashboardState {
	if s.Dashboards == nil {
		s.Dashboards = make(map[string]*DashboardState)
	}
	ds := s.Dashboards[id]
	if ds == nil {
		ds = &DashboardState{}
		s.Dashboards[id] = ds
	}
	if ds.Params == nil {
		ds.Params = make(map[string]string)
	}
	return ds
}

// Load reads the UI state from dataDir/ui-state.json.
// Returns default state if the file doesn't exist or on error.
func Load(dataDir string) *UIState {
	path := filepath.Join(dataDir, fileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultUIState()
	}
	if err != nil {
		logger.Warn("Failed to read UI state file: %v", err)
		return DefaultUIState()
	}

	var state UIState
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("Failed to parse UI state JSON: %v", err)
		return DefaultUIState()
	}
	if state.Dashboards == nil {
		state.Dashboards = make(map[string]*DashboardState)
	}
	return &state
}

// Save writes the UI state to dataDir/ui-state.json, creating dataDir if
// needed.
func Save(dataDir string, state *UIState) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, fileName)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling UI state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing UI state file: %w", err)
	}

	logger.Debug("UI state saved to %s", path)
	return nil
}
