// Package testfixtures provides fake dependencies and fixtures for TUI tests.
//
//   - MockStore: records the writes the TUI makes and serves a fixed state
//   - MockRefresher: returns canned row counts per widget
//
// Both are safe for use from tea.Cmd goroutines.
package testfixtures

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/refresh"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/viz"
)

// MockStore serves State from LoadState and records writes.
type MockStore struct {
	mu sync.Mutex

	State     *store.State
	LoadError error
	// Error returned from every write
	WriteError error

	Resizes  map[string]int
	Contents map[string]estimate.Metrics
	Params   map[string]string

	LoadStateCalls int
}

// NewMockStore creates a MockStore serving st.
func NewMockStore(st *store.State) *MockStore {
	return &MockStore{
		State:    st,
		Resizes:  make(map[string]int),
		Contents: make(map[string]estimate.Metrics),
		Params:   make(map[string]string),
	}
}

// LoadState returns the configured state or error.
func (m *MockStore) LoadState(ctx context.Context, ref string) (*store.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadStateCalls++
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.State == nil || (ref != m.State.Dashboard.ID && ref != m.State.Dashboard.Slug) {
		return nil, store.ErrDashboardNotFound
	}
	return m.State, nil
}

// WidgetResizeTo records a manual resize.
func (m *MockStore) WidgetResizeTo(ctx context.Context, dashboardID, widgetID string, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Resizes[widgetID] = rows
	return nil
}

// WidgetContent records content metrics.
func (m *MockStore) WidgetContent(ctx context.Context, dashboardID, widgetID string, metrics estimate.Metrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Contents[widgetID] = metrics
	return nil
}

// ParamSet records a parameter value.
func (m *MockStore) ParamSet(ctx context.Context, dashboardID, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Params[name] = value
	return nil
}

// Resize returns the last recorded resize of widgetID.
func (m *MockStore) Resize(widgetID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.Resizes[widgetID]
	return rows, ok
}

// Content returns the last recorded metrics of widgetID.
func (m *MockStore) Content(widgetID string) (estimate.Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metrics, ok := m.Contents[widgetID]
	return metrics, ok
}

// MockRefresher answers refreshes with a fixed number of rows per widget.
type MockRefresher struct {
	mu sync.Mutex

	Rows   map[string]int
	Errors map[string]error

	Calls      []refresh.Target
	LastParams map[string]string
}

// NewMockRefresher creates a refresher returning no rows for every widget.
func NewMockRefresher() *MockRefresher {
	return &MockRefresher{
		Rows:   make(map[string]int),
		Errors: make(map[string]error),
	}
}

// SetRows sets the row count returned for widgetID.
func (r *MockRefresher) SetRows(widgetID string, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rows[widgetID] = rows
}

// SetError makes refreshes of widgetID fail.
func (r *MockRefresher) SetError(widgetID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors[widgetID] = err
}

// CallCount returns the number of refreshes run.
func (r *MockRefresher) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}

// Refresh returns a body of "row N" lines with matching metrics.
func (r *MockRefresher) Refresh(ctx context.Context, t refresh.Target, params map[string]string) refresh.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, t)
	r.LastParams = params

	if err := r.Errors[t.WidgetID]; err != nil {
		return refresh.Outcome{WidgetID: t.WidgetID, Err: err, Content: viz.Content{Body: err.Error(), Err: err}}
	}
	if t.Visualization == estimate.TypeText {
		return refresh.Outcome{
			WidgetID: t.WidgetID,
			Content:  viz.Content{Body: t.Text, Metrics: estimate.Metrics{Lines: strings.Count(t.Text, "\n") + 1}},
		}
	}

	n := r.Rows[t.WidgetID]
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("row %d", i+1)
	}
	return refresh.Outcome{
		WidgetID: t.WidgetID,
		Content: viz.Content{
			Body:    strings.Join(lines, "\n"),
			Metrics: estimate.Metrics{RowCount: n, ParameterCount: len(t.Parameters)},
		},
	}
}
