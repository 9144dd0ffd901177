package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesSQL = `WITH RECURSIVE s(a) AS (SELECT 1 UNION ALL SELECT a + 1 FROM s WHERE a < {{ count }}) SELECT a FROM s`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	dataDir := t.TempDir()
	ns, _, err := nats.StartEmbeddedNATS(dataDir)
	require.NoError(t, err)

	nc, err := nats.ConnectInProcess(ns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nats.Shutdown(nc, ns, dataDir) })

	js, err := nats.CreateJetStream(nc)
	require.NoError(t, err)
	stream, err := nats.SetupStream(ctx, js)
	require.NoError(t, err)

	return NewStore(js, stream, DefaultOptions())
}

func layoutOf(t *testing.T, st *State, id string) *widget.Layout {
	t.Helper()
	l, ok := st.Board.Get(id)
	require.True(t, ok, "widget %s should be on the board", id)
	return l
}

func TestDashboards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d1, err := s.DashboardCreate(ctx, "Sales Overview")
	require.NoError(t, err)
	assert.NotEmpty(t, d1.ID)
	assert.Equal(t, "sales-overview", d1.Slug)

	d2, err := s.DashboardCreate(ctx, "Sales overview")
	require.NoError(t, err)
	assert.Equal(t, "sales-overview-2", d2.Slug)

	_, err = s.DashboardCreate(ctx, "  ")
	assert.Error(t, err)

	list, err := s.Dashboards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, d1.ID, list[0].ID)

	got, err := s.ResolveDashboard(ctx, "sales-overview-2")
	require.NoError(t, err)
	assert.Equal(t, d2.ID, got.ID)

	got, err = s.ResolveDashboard(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales Overview", got.Name)

	_, err = s.ResolveDashboard(ctx, "nope")
	assert.ErrorIs(t, err, ErrDashboardNotFound)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	q, err := s.QueryCreate(ctx, QueryCreateParams{
		Name:       "Series",
		SQL:        seriesSQL,
		Parameters: []query.Parameter{{Name: "count", Type: query.ParamNumber, Default: "2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Revision)
	require.Len(t, q.Parameters, 1)
	assert.Equal(t, query.ParamNumber, q.Parameters[0].Type)

	auto, err := s.QueryCreate(ctx, QueryCreateParams{SQL: "select '{{ who }}'"})
	require.NoError(t, err)
	assert.Equal(t, "New Query", auto.Name)
	require.Len(t, auto.Parameters, 1)
	assert.Equal(t, query.Parameter{Name: "who", Title: "who", Type: query.ParamText}, auto.Parameters[0])

	revised, err := s.QueryRevise(ctx, q.ID, "select {{ count }} + {{ offset }}")
	require.NoError(t, err)
	assert.Equal(t, 2, revised.Revision)

	loaded, err := s.Query(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "select {{ count }} + {{ offset }}", loaded.SQL)
	assert.Equal(t, 2, loaded.Revision)
	require.Len(t, loaded.Parameters, 2)
	assert.Equal(t, "2", loaded.Parameters[0].Default, "existing definitions are kept")
	assert.Equal(t, "offset", loaded.Parameters[1].Name)

	_, err = s.Query(ctx, "missing")
	assert.ErrorIs(t, err, ErrQueryNotFound)
	_, err = s.QueryRevise(ctx, "missing", "select 1")
	assert.ErrorIs(t, err, ErrQueryNotFound)
	_, err = s.QueryCreate(ctx, QueryCreateParams{})
	assert.Error(t, err)
}

func TestWidget_AutoHeightFollowsContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := s.Options().Geometry

	d, err := s.DashboardCreate(ctx, "Auto")
	require.NoError(t, err)
	q, err := s.QueryCreate(ctx, QueryCreateParams{Name: "Two", SQL: "select 1"})
	require.NoError(t, err)

	w, err := s.WidgetAdd(ctx, d.ID, WidgetAddParams{QueryID: q.ID, Metrics: estimate.Metrics{RowCount: 2}})
	require.NoError(t, err)
	assert.Equal(t, "Two", w.Title)
	assert.Equal(t, estimate.TypeTable, w.Visualization)

	st, err := s.LoadState(ctx, d.Slug)
	require.NoError(t, err)
	l := layoutOf(t, st, w.ID)
	assert.Equal(t, widget.ModeAuto, l.Mode)
	assert.Equal(t, 235, g.ToPixels(l.GridHeight))

	require.NoError(t, s.WidgetContent(ctx, d.ID, w.ID, estimate.Metrics{RowCount: 5}))

	st, err = s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	l = layoutOf(t, st, w.ID)
	assert.Equal(t, 335, g.ToPixels(l.GridHeight))
	assert.Equal(t, 5, l.ContentRowCount)
}

func TestWidget_ManualResizeSurvivesReplay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	g := s.Options().Geometry

	d, err := s.DashboardCreate(ctx, "Manual")
	require.NoError(t, err)
	q, err := s.QueryCreate(ctx, QueryCreateParams{
		Name:       "Series",
		SQL:        seriesSQL,
		Parameters: []query.Parameter{{Name: "count", Type: query.ParamNumber}},
	})
	require.NoError(t, err)

	w, err := s.WidgetAdd(ctx, d.ID, WidgetAddParams{QueryID: q.ID})
	require.NoError(t, err)

	require.NoError(t, s.WidgetContent(ctx, d.ID, w.ID, estimate.Metrics{RowCount: 1, ParameterCount: 1}))
	st, err := s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 285, g.ToPixels(layoutOf(t, st, w.ID).GridHeight))

	rows, err := s.WidgetResize(ctx, d.ID, w.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 4, rows)

	require.NoError(t, s.WidgetContent(ctx, d.ID, w.ID, estimate.Metrics{RowCount: 5, ParameterCount: 1}))

	st, err = s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	l := layoutOf(t, st, w.ID)
	assert.Equal(t, widget.ModeManual, l.Mode)
	assert.Equal(t, 335, g.ToPixels(l.GridHeight))
	assert.Equal(t, 5, l.ContentRowCount)

	snap := st.Snapshot(g)
	require.Len(t, snap.Widgets, 1)
	assert.Equal(t, "manual", snap.Widgets[0].Mode)
	assert.Equal(t, 335, snap.Widgets[0].Pixels)
	assert.Equal(t, "manual", snap.Slug)
}

func TestWidget_TextAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d, err := s.DashboardCreate(ctx, "Notes")
	require.NoError(t, err)

	_, err = s.WidgetAdd(ctx, d.ID, WidgetAddParams{})
	assert.Error(t, err, "text widget without text")
	_, err = s.WidgetAdd(ctx, d.ID, WidgetAddParams{QueryID: "missing"})
	assert.ErrorIs(t, err, ErrQueryNotFound)
	_, err = s.WidgetAdd(ctx, "missing", WidgetAddParams{Text: "x"})
	assert.ErrorIs(t, err, ErrDashboardNotFound)

	a, err := s.WidgetAdd(ctx, d.ID, WidgetAddParams{Text: "# Hello"})
	require.NoError(t, err)
	assert.Equal(t, estimate.TypeText, a.Visualization)
	b, err := s.WidgetAdd(ctx, d.ID, WidgetAddParams{Text: "second"})
	require.NoError(t, err)

	st, err := s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, layoutOf(t, st, a.ID).Col)
	assert.Equal(t, 3, layoutOf(t, st, b.ID).Col, "second widget goes next to the first")
	assert.Equal(t, "# Hello", st.Widgets[a.ID].Text)

	require.NoError(t, s.WidgetMove(ctx, d.ID, b.ID, 0, 6))
	require.NoError(t, s.WidgetRemove(ctx, d.ID, a.ID))
	// Late content for a removed widget is ignored on replay.
	require.NoError(t, s.WidgetContent(ctx, d.ID, a.ID, estimate.Metrics{Lines: 40}))

	st, err = s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Board.Len())
	_, ok := st.Widgets[a.ID]
	assert.False(t, ok)
	lb := layoutOf(t, st, b.ID)
	assert.Equal(t, 6, lb.Width)
	assert.Equal(t, 0, lb.Row)

	require.NoError(t, s.WidgetMove(ctx, d.ID, b.ID, 0, 2))
	require.NoError(t, s.WidgetMove(ctx, d.ID, b.ID, 3, 0))
	st, err = s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	lb = layoutOf(t, st, b.ID)
	assert.Equal(t, 3, lb.Col)
	assert.Equal(t, 2, lb.Width, "an unset width keeps the current span")

	assert.ErrorIs(t, s.WidgetRemove(ctx, d.ID, a.ID), ErrWidgetNotFound)
	_, err = s.WidgetResize(ctx, d.ID, a.ID, 50)
	assert.ErrorIs(t, err, ErrWidgetNotFound)
	assert.ErrorIs(t, s.WidgetMove(ctx, d.ID, a.ID, 0, 1), ErrWidgetNotFound)
}

func TestParams(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d, err := s.DashboardCreate(ctx, "Params")
	require.NoError(t, err)
	require.NoError(t, s.ParamSet(ctx, d.ID, "count", "1"))
	require.NoError(t, s.ParamSet(ctx, d.ID, "count", "5"))
	assert.Error(t, s.ParamSet(ctx, d.ID, "", "5"))

	st, err := s.LoadState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"count": "5"}, st.Params)
}

func TestState_ApplyIsIdempotent(t *testing.T) {
	s := NewStore(nil, nil, DefaultOptions())
	d := &Dashboard{ID: "d1", Slug: "d1"}
	st := s.NewState(d, nil)

	meta := func(v any) json.RawMessage {
		raw, _ := json.Marshal(v)
		return raw
	}
	events := []Event{
		{ID: "w1", Dashboard: "d1", Type: nats.EventTypeWidget, Action: "add",
			Meta: meta(widgetMeta{Visualization: estimate.TypeTable, RowCount: 2})},
		{Dashboard: "d1", Type: nats.EventTypeWidget, Action: "resize",
			Meta: meta(widgetMeta{WidgetID: "w1", Rows: 7})},
		{Dashboard: "d1", Type: nats.EventTypeWidget, Action: "content",
			Meta: meta(widgetMeta{WidgetID: "w1", RowCount: 1})},
	}
	for _, e := range events {
		st.Apply(e)
		st.Apply(e)
	}

	assert.Equal(t, 1, st.Board.Len())
	l := layoutOf(t, st, "w1")
	assert.Equal(t, 7, l.GridHeight)
	assert.Equal(t, widget.ModeManual, l.Mode)

	// Events for other dashboards are ignored.
	st.Apply(Event{ID: "w2", Dashboard: "d2", Type: nats.EventTypeWidget, Action: "add", Meta: meta(widgetMeta{})})
	assert.Equal(t, 1, st.Board.Len())

	// Catalog events reach the shared catalog.
	st.Apply(Event{ID: "q1", Dashboard: nats.QueriesScope, Type: nats.EventTypeQuery, Action: "create",
		Meta: meta(map[string]any{"name": "Q"}), Data: "select 1"})
	assert.Equal(t, "select 1", st.Catalog.Queries["q1"].SQL)
}

func TestState_AffectedWidgetsAndParameters(t *testing.T) {
	s := NewStore(nil, nil, DefaultOptions())
	st := s.NewState(&Dashboard{ID: "d1", Slug: "d1"}, nil)

	meta := func(v any) json.RawMessage {
		raw, _ := json.Marshal(v)
		return raw
	}
	create := Event{ID: "q1", Dashboard: nats.QueriesScope, Type: nats.EventTypeQuery, Action: "create",
		Meta: meta(map[string]any{"name": "Q", "parameters": []query.Parameter{{Name: "count", Type: query.ParamNumber}}}),
		Data: "select {{ count }}"}
	st.Apply(create)
	assert.Empty(t, st.AffectedWidgets(create), "no widget shows the query yet")

	add := Event{ID: "w1", Dashboard: "d1", Type: nats.EventTypeWidget, Action: "add",
		Meta: meta(widgetMeta{QueryID: "q1", Visualization: estimate.TypeTable})}
	st.Apply(add)
	assert.Equal(t, []string{"w1"}, st.AffectedWidgets(add))

	note := Event{ID: "w2", Dashboard: "d1", Type: nats.EventTypeWidget, Action: "add",
		Meta: meta(widgetMeta{Visualization: estimate.TypeText}), Data: "# hi"}
	st.Apply(note)

	revise := Event{Dashboard: nats.QueriesScope, Type: nats.EventTypeQuery, Action: "revise",
		Meta: meta(map[string]any{"query_id": "q1", "revision": 2, "parameters": []query.Parameter{
			{Name: "count", Type: query.ParamNumber}, {Name: "offset", Type: query.ParamText},
		}}),
		Data: "select {{ count }} + {{ offset }}"}
	st.Apply(revise)
	st.Apply(revise)
	assert.Equal(t, 2, st.Catalog.Queries["q1"].Revision, "replayed revision is not counted twice")
	assert.Equal(t, []string{"w1"}, st.AffectedWidgets(revise))

	params := st.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "count", params[0].Name)
	assert.Equal(t, "offset", params[1].Name)
}
