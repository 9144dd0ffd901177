package store

import (
	"fmt"

	"github.com/aymanbagabas/go-udiff"
	"github.com/mark3labs/tilegrid/internal/grid"
	"gopkg.in/yaml.v3"
)

// LayoutEntry is the exported layout of one widget.
type LayoutEntry struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
	Visualization string `json:"visualization" yaml:"visualization"`
	Mode          string `json:"mode" yaml:"mode"`
	GridHeight    int    `json:"grid_height" yaml:"grid_height"`
	Pixels        int    `json:"pixels" yaml:"pixels"`
	ContentRows   int    `json:"content_rows" yaml:"content_rows"`
	Col           int    `json:"col" yaml:"col"`
	Width         int    `json:"width" yaml:"width"`
	Row           int    `json:"row" yaml:"row"`
}

// LayoutSnapshot is the exported layout of a dashboard.
type LayoutSnapshot struct {
	Dashboard string        `json:"dashboard" yaml:"dashboard"`
	Slug      string        `json:"slug" yaml:"slug"`
	Columns   int           `json:"columns" yaml:"columns"`
	Rows      int           `json:"rows" yaml:"rows"`
	Widgets   []LayoutEntry `json:"widgets" yaml:"widgets"`
}

// Snapshot returns the current layout with pixel heights from g.
func (st *State) Snapshot(g grid.Geometry) LayoutSnapshot {
	snap := LayoutSnapshot{
		Columns: st.Board.Columns(),
		Rows:    st.Board.Height(),
		Widgets: []LayoutEntry{},
	}
	if st.Dashboard != nil {
		snap.Dashboard = st.Dashboard.Name
		snap.Slug = st.Dashboard.Slug
	}
	for _, l := range st.Board.Layouts() {
		e := LayoutEntry{
			ID:            l.ID,
			Visualization: l.Visualization,
			Mode:          l.Mode.String(),
			GridHeight:    l.GridHeight,
			Pixels:        g.ToPixels(l.GridHeight),
			ContentRows:   l.ContentRowCount,
			Col:           l.Col,
			Width:         l.Width,
			Row:           l.Row,
		}
		if w, ok := st.Widgets[l.ID]; ok {
			e.Title = w.Title
		}
		snap.Widgets = append(snap.Widgets, e)
	}
	return snap
}

// YAML encodes the snapshot in the layout export format.
func (snap LayoutSnapshot) YAML() ([]byte, error) {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling layout: %w", err)
	}
	return data, nil
}

// ParseSnapshot decodes a layout export.
func ParseSnapshot(data []byte) (LayoutSnapshot, error) {
	var snap LayoutSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return LayoutSnapshot{}, fmt.Errorf("parsing layout: %w", err)
	}
	return snap, nil
}

// DiffSnapshots returns a unified diff from an exported layout to the
// current one. It is empty when they match.
func DiffSnapshots(before, after LayoutSnapshot) (string, error) {
	a, err := before.YAML()
	if err != nil {
		return "", err
	}
	b, err := after.YAML()
	if err != nil {
		return "", err
	}
	return udiff.Unified("a/layout.yml", "b/layout.yml", string(a), string(b)), nil
}
