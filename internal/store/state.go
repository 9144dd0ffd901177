package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/widget"
)

// Widget is the non-layout part of a widget: what it shows.
type Widget struct {
	ID            string    `json:"id"`
	QueryID       string    `json:"query_id,omitempty"`
	Visualization string    `json:"visualization"`
	Title         string    `json:"title,omitempty"`
	Text          string    `json:"text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// State is one dashboard rebuilt from the event log. Layouts live in Board
// and change only through the same widget operations the TUI uses, so a
// replay reproduces the height mode of every widget.
type State struct {
	Dashboard *Dashboard
	Catalog   *Catalog
	Widgets   map[string]*Widget
	Params    map[string]string
	Board     *widget.Board

	reconciler *widget.Reconciler
}

// NewState returns an empty state for d.
func (s *Store) NewState(d *Dashboard, catalog *Catalog) *State {
	if catalog == nil {
		catalog = newCatalog()
	}
	board := widget.NewBoard(s.opts.Columns)
	return &State{
		Dashboard:  d,
		Catalog:    catalog,
		Widgets:    make(map[string]*Widget),
		Params:     make(map[string]string),
		Board:      board,
		reconciler: widget.NewReconciler(board, s.registry),
	}
}

// Reconciler returns the reconciler bound to st.Board.
func (st *State) Reconciler() *widget.Reconciler {
	return st.reconciler
}

// QueryFor returns the query shown by widget id, or nil.
func (st *State) QueryFor(id string) *Query {
	w, ok := st.Widgets[id]
	if !ok || w.QueryID == "" {
		return nil
	}
	return st.Catalog.Queries[w.QueryID]
}

// WidgetIDs returns widget IDs in board order.
func (st *State) WidgetIDs() []string {
	return st.Board.IDs()
}

type widgetMeta struct {
	WidgetID       string `json:"widget_id,omitempty"`
	QueryID        string `json:"query_id,omitempty"`
	Visualization  string `json:"visualization,omitempty"`
	Title          string `json:"title,omitempty"`
	Col            int    `json:"col,omitempty"`
	Width          int    `json:"width,omitempty"`
	Rows           int    `json:"rows,omitempty"`
	RowCount       int    `json:"row_count,omitempty"`
	ParameterCount int    `json:"parameter_count,omitempty"`
	Lines          int    `json:"lines,omitempty"`
}

func (m widgetMeta) metrics() estimate.Metrics {
	return estimate.Metrics{RowCount: m.RowCount, ParameterCount: m.ParameterCount, Lines: m.Lines}
}

// Apply reduces one event into the state. Catalog events update the shared
// catalog; events for other dashboards are ignored. Every action is
// idempotent, so an event seen twice leaves the state unchanged.
func (st *State) Apply(event Event) {
	if event.Dashboard == nats.QueriesScope {
		st.Catalog.Apply(event)
		return
	}
	if st.Dashboard != nil && event.Dashboard != st.Dashboard.ID {
		return
	}

	switch event.Type {
	case nats.EventTypeWidget:
		st.applyWidgetEvent(event)
	case nats.EventTypeParam:
		st.applyParamEvent(event)
	}
}

func (st *State) applyWidgetEvent(event Event) {
	var meta widgetMeta
	if err := json.Unmarshal(event.Meta, &meta); err != nil {
		logger.Warn("Ignoring widget event %s with bad meta: %v", event.ID, err)
		return
	}

	switch event.Action {
	case "add":
		if _, exists := st.Widgets[event.ID]; exists {
			return
		}
		st.Widgets[event.ID] = &Widget{
			ID:            event.ID,
			QueryID:       meta.QueryID,
			Visualization: meta.Visualization,
			Title:         meta.Title,
			Text:          event.Data,
			CreatedAt:     event.Timestamp,
		}
		st.reconciler.Place(widget.Layout{
			ID:            event.ID,
			Visualization: meta.Visualization,
			Col:           meta.Col,
			Width:         meta.Width,
		}, meta.metrics())

	case "resize":
		st.Board.ApplyManualResize(meta.WidgetID, meta.Rows)

	case "content":
		st.reconciler.Reconcile(meta.WidgetID, meta.metrics())

	case "move":
		st.Board.Move(meta.WidgetID, meta.Col, meta.Width)

	case "remove":
		delete(st.Widgets, meta.WidgetID)
		st.Board.Remove(meta.WidgetID)
	}
}

func (st *State) applyParamEvent(event Event) {
	if event.Action != "set" {
		return
	}
	var meta struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(event.Meta, &meta); err != nil || meta.Name == "" {
		return
	}
	st.Params[meta.Name] = event.Data
}

// LoadState rebuilds the dashboard identified by ref (ID or slug).
func (s *Store) LoadState(ctx context.Context, ref string) (*State, error) {
	logger.Debug("Loading state for dashboard: %s", ref)

	catalog, err := s.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	d, err := catalog.resolveDashboard(ref)
	if err != nil {
		return nil, err
	}

	st := s.NewState(d, catalog)
	if err := s.replay(ctx, nats.SubjectForDashboard(d.ID), st.Apply); err != nil {
		return nil, err
	}

	logger.Debug("State loaded: dashboard=%s widgets=%d", d.ID, st.Board.Len())
	return st, nil
}

// AffectedWidgets returns the widgets whose content must be rendered again
// after event has been applied: a newly added widget, or every widget
// showing a query that was revised.
func (st *State) AffectedWidgets(event Event) []string {
	switch {
	case event.Type == nats.EventTypeWidget && event.Action == "add":
		if _, ok := st.Widgets[event.ID]; ok {
			return []string{event.ID}
		}
	case event.Type == nats.EventTypeQuery && event.Action == "revise":
		var meta struct {
			QueryID string `json:"query_id"`
		}
		if err := json.Unmarshal(event.Meta, &meta); err != nil {
			return nil
		}
		var ids []string
		for _, id := range st.WidgetIDs() {
			if w := st.Widgets[id]; w != nil && w.QueryID == meta.QueryID {
				ids = append(ids, id)
			}
		}
		return ids
	}
	return nil
}

// Parameters returns the distinct parameters of all queries on the
// dashboard, in board order of first use.
func (st *State) Parameters() []query.Parameter {
	seen := make(map[string]bool)
	var out []query.Parameter
	for _, id := range st.WidgetIDs() {
		q := st.QueryFor(id)
		if q == nil {
			continue
		}
		for _, p := range q.Parameters {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			out = append(out, p)
		}
	}
	return out
}
