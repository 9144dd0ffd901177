package tui

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/grid"
	tgnats "github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/tui/testfixtures"
	"github.com/mark3labs/tilegrid/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain runs cmd and feeds every message it produces back into app, the
// way the Bubbletea runtime would, but synchronously.
func drain(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := app.Update(msg)
			queue = append(queue, next)
		}
	}
}

func newTestApp(t *testing.T, st *store.State) (*App, *testfixtures.MockStore, *testfixtures.MockRefresher) {
	t.Helper()
	ms := testfixtures.NewMockStore(st)
	mr := testfixtures.NewMockRefresher()
	app := NewApp(context.Background(), Options{
		Store:     ms,
		Refresher: mr,
		Dashboard: testfixtures.FixedDashboardSlug,
		Terminal:  testfixtures.TerminalGeometry(),
		Pixels:    grid.Pixels(),
	})
	app.Update(tea.WindowSizeMsg{Width: testfixtures.TestTermWidth, Height: testfixtures.TestTermHeight})
	return app, ms, mr
}

func load(t *testing.T, app *App) {
	t.Helper()
	drain(t, app, app.Init())
	require.NotNil(t, app.state, "dashboard should be loaded")
}

func layoutOf(t *testing.T, app *App, id string) *widget.Layout {
	t.Helper()
	l, ok := app.state.Board.Get(id)
	require.True(t, ok, "widget %s should be on the board", id)
	return l
}

func pixels(t *testing.T, app *App, id string) int {
	t.Helper()
	return grid.Pixels().ToPixels(layoutOf(t, app, id).GridHeight)
}

func key(s string) tea.KeyPressMsg {
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

// dragHandle drags the bottom border of widget id by deltaLines.
func dragHandle(t *testing.T, app *App, id string, deltaLines int) {
	t.Helper()
	f, ok := app.grid.frame(id)
	require.True(t, ok)
	x := app.layout.Grid.Min.X + f.x + 1
	y := app.layout.Grid.Min.Y + f.y + f.h - 1

	handle, ok := app.grid.HandleAt(x, y)
	require.True(t, ok)
	require.Equal(t, id, handle)

	app.Update(tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	require.True(t, app.resize.Active(), "click on the handle should start a drag")
	app.Update(tea.MouseMotionMsg{X: x, Y: y + deltaLines, Button: tea.MouseLeft})
	_, cmd := app.Update(tea.MouseReleaseMsg{X: x, Y: y + deltaLines, Button: tea.MouseLeft})
	drain(t, app, cmd)
}

func TestApp_TableGrowsWithContent(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	assert.Equal(t, 235, pixels(t, app, testfixtures.TableWidget))
	assert.Equal(t, widget.ModeAuto, layoutOf(t, app, testfixtures.TableWidget).Mode)

	mr.SetRows(testfixtures.TableWidget, 5)
	_, cmd := app.Update(key("r"))
	drain(t, app, cmd)

	assert.Equal(t, 335, pixels(t, app, testfixtures.TableWidget))
	m, ok := ms.Content(testfixtures.TableWidget)
	require.True(t, ok)
	assert.Equal(t, 5, m.RowCount)
}

func TestApp_ParameterBarAddsTwoRows(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithParamTable())
	mr.SetRows(testfixtures.ParamWidget, 1)
	load(t, app)

	assert.Equal(t, 285, pixels(t, app, testfixtures.ParamWidget))
	assert.Equal(t, 1, app.params.Len())
	assert.False(t, app.layout.Params.Empty(), "parameter bar should get a row")

	mr.SetRows(testfixtures.ParamWidget, 5)
	_, cmd := app.Update(key("r"))
	drain(t, app, cmd)
	assert.Equal(t, 435, pixels(t, app, testfixtures.ParamWidget))
}

func TestApp_ManualResizeSticks(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithParamTable())
	mr.SetRows(testfixtures.ParamWidget, 1)
	load(t, app)
	require.Equal(t, 285, pixels(t, app, testfixtures.ParamWidget))

	app.Update(key("e"))
	require.True(t, app.editing)

	// One grid row is 50px on the dashboard and 2 lines in the terminal.
	dragHandle(t, app, testfixtures.ParamWidget, 2)

	l := layoutOf(t, app, testfixtures.ParamWidget)
	assert.Equal(t, widget.ModeManual, l.Mode)
	assert.Equal(t, 335, pixels(t, app, testfixtures.ParamWidget))
	rows, ok := ms.Resize(testfixtures.ParamWidget)
	require.True(t, ok)
	assert.Equal(t, 4, rows)

	mr.SetRows(testfixtures.ParamWidget, 5)
	_, cmd := app.Update(key("r"))
	drain(t, app, cmd)

	assert.Equal(t, 335, pixels(t, app, testfixtures.ParamWidget), "manual height survives refresh")
	assert.Equal(t, 5, layoutOf(t, app, testfixtures.ParamWidget).ContentRowCount)
}

func TestApp_ResizeDuringRefresh(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	// Start a refresh that will come back with more rows, but hold it.
	mr.SetRows(testfixtures.TableWidget, 5)
	_, inflight := app.Update(key("r"))
	require.NotNil(t, inflight)

	app.Update(key("e"))
	_, cmd := app.Update(key("-"))
	drain(t, app, cmd)
	require.Equal(t, widget.ModeManual, layoutOf(t, app, testfixtures.TableWidget).Mode)
	require.Equal(t, 185, pixels(t, app, testfixtures.TableWidget))

	drain(t, app, inflight)
	assert.Equal(t, 185, pixels(t, app, testfixtures.TableWidget), "late refresh must not undo a manual resize")
}

func TestApp_KeyboardResizeClampsToMinimum(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	app.Update(key("e"))
	for range 5 {
		_, cmd := app.Update(key("-"))
		drain(t, app, cmd)
	}
	assert.Equal(t, 1, layoutOf(t, app, testfixtures.TableWidget).GridHeight)
	rows, _ := ms.Resize(testfixtures.TableWidget)
	assert.Equal(t, 1, rows)

	_, cmd := app.Update(key("+"))
	drain(t, app, cmd)
	assert.Equal(t, 2, layoutOf(t, app, testfixtures.TableWidget).GridHeight)
}

func TestApp_ResizeKeysNeedEditMode(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	_, cmd := app.Update(key("+"))
	assert.Nil(t, cmd)
	assert.Equal(t, widget.ModeAuto, layoutOf(t, app, testfixtures.TableWidget).Mode)
	_, ok := ms.Resize(testfixtures.TableWidget)
	assert.False(t, ok)
}

func TestApp_EscCancelsDrag(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)
	app.Update(key("e"))

	f, ok := app.grid.frame(testfixtures.TableWidget)
	require.True(t, ok)
	y := f.y + f.h - 1
	app.Update(tea.MouseClickMsg{X: 1, Y: y, Button: tea.MouseLeft})
	app.Update(tea.MouseMotionMsg{X: 1, Y: y + 6, Button: tea.MouseLeft})
	assert.Equal(t, testfixtures.TableWidget, app.grid.previewID)

	app.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, app.resize.Active())
	assert.Empty(t, app.grid.previewID)

	_, cmd := app.Update(tea.MouseReleaseMsg{X: 1, Y: y + 6, Button: tea.MouseLeft})
	assert.Nil(t, cmd)
	assert.Equal(t, widget.ModeAuto, layoutOf(t, app, testfixtures.TableWidget).Mode)
	_, ok = ms.Resize(testfixtures.TableWidget)
	assert.False(t, ok)
}

func TestApp_FailedRefreshKeepsLayout(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	mr.SetError(testfixtures.TableWidget, errors.New("no such table: orders"))
	_, cmd := app.Update(key("r"))
	drain(t, app, cmd)

	assert.Equal(t, 235, pixels(t, app, testfixtures.TableWidget))
	m, _ := ms.Content(testfixtures.TableWidget)
	assert.Equal(t, 2, m.RowCount, "failed refresh is not recorded")
	assert.Error(t, app.grid.contents[testfixtures.TableWidget].Err)
}

func TestApp_RefreshOfRemovedWidget(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	mr.SetRows(testfixtures.TableWidget, 5)
	_, inflight := app.Update(key("r"))

	app.state.Board.Remove(testfixtures.TableWidget)
	delete(app.state.Widgets, testfixtures.TableWidget)
	app.grid.Sync()

	assert.NotPanics(t, func() { drain(t, app, inflight) })
	assert.Equal(t, 0, app.state.Board.Len())
}

func TestApp_ContentPublishedOnlyOnChange(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	ms.Contents = map[string]estimate.Metrics{}
	_, cmd := app.Update(key("r"))
	drain(t, app, cmd)
	_, ok := ms.Content(testfixtures.TableWidget)
	assert.False(t, ok, "unchanged content is not saved again")
}

func TestApp_ApplyParams(t *testing.T) {
	app, ms, mr := newTestApp(t, testfixtures.StateWithAll())
	mr.SetRows(testfixtures.TableWidget, 2)
	mr.SetRows(testfixtures.ParamWidget, 1)
	load(t, app)
	before := mr.CallCount()

	mr.SetRows(testfixtures.ParamWidget, 5)
	_, cmd := app.Update(ApplyParamsMsg{Values: map[string]string{"count": "5"}})
	drain(t, app, cmd)

	assert.Equal(t, "5", ms.Params["count"])
	assert.Equal(t, "5", app.state.Params["count"])
	assert.Equal(t, before+1, mr.CallCount(), "only the parameterized widget is refreshed")
	assert.Equal(t, "5", mr.LastParams["count"])
	assert.Equal(t, 435, pixels(t, app, testfixtures.ParamWidget))

	// Applying the same values again does nothing.
	_, cmd = app.Update(ApplyParamsMsg{Values: map[string]string{"count": "5"}})
	assert.Nil(t, cmd)
}

func TestApp_LoadError(t *testing.T) {
	app, ms, _ := newTestApp(t, testfixtures.StateWithTable())
	ms.LoadError = errors.New("stream unavailable")

	msg := app.loadDashboard()()
	app.Update(msg)

	assert.Nil(t, app.state)
	assert.Contains(t, app.status.err, "stream unavailable")
	assert.True(t, app.toast.IsVisible())
}

func TestApp_FocusCycles(t *testing.T) {
	app, _, _ := newTestApp(t, testfixtures.StateWithAll())
	load(t, app)

	first := app.grid.Focused()
	require.NotEmpty(t, first)
	seen := map[string]bool{first: true}
	for range 2 {
		app.Update(tea.KeyPressMsg{Code: tea.KeyTab})
		seen[app.grid.Focused()] = true
	}
	assert.Len(t, seen, 3)

	app.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Equal(t, first, app.grid.Focused())
}

func TestApp_EventFromAnotherProcess(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)

	// A resize published elsewhere arrives as an event with absolute rows.
	ev := store.Event{
		Dashboard: testfixtures.FixedDashboardID,
		Type:      tgnats.EventTypeWidget,
		Action:    "resize",
		Meta:      []byte(`{"widget_id":"` + testfixtures.TableWidget + `","rows":6}`),
	}
	_, cmd := app.Update(EventMsg{Event: ev})
	require.NotNil(t, cmd)

	l := layoutOf(t, app, testfixtures.TableWidget)
	assert.Equal(t, 6, l.GridHeight)
	assert.Equal(t, widget.ModeManual, l.Mode)
}

func TestApp_ViewRendersWidgets(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithAll())
	mr.SetRows(testfixtures.TableWidget, 2)
	mr.SetRows(testfixtures.ParamWidget, 1)
	load(t, app)

	lines := testfixtures.Render(app.Draw)
	assert.True(t, testfixtures.Contains(lines, "Orders"))
	assert.True(t, testfixtures.Contains(lines, "Series"))
	assert.True(t, testfixtures.Contains(lines, "auto · 2 rows · 235px"))
	assert.True(t, testfixtures.Contains(lines, "auto · 3 rows · 285px"))
	assert.True(t, testfixtures.Contains(lines, "Count:"))
	assert.True(t, testfixtures.Contains(lines, "Sales"))
}

func TestApp_Quit(t *testing.T) {
	app, _, _ := newTestApp(t, testfixtures.StateWithTable())
	load(t, app)

	_, cmd := app.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, app.quitting)
}

// deliverRefreshes runs cmd and feeds only the finished refreshes it
// produces back into app. Spinner ticks are dropped.
func deliverRefreshes(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case ContentRefreshedMsg:
			app.Update(msg)
		}
	}
}

func TestApp_WidgetRemovedBeforeFirstRefresh(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithTable())
	mr.SetRows(testfixtures.TableWidget, 2)
	load(t, app)
	mr.SetRows("w-new", 3)

	inflight := app.handleEvent(store.Event{
		ID:        "w-new",
		Dashboard: testfixtures.FixedDashboardID,
		Type:      tgnats.EventTypeWidget,
		Action:    "add",
		Meta:      []byte(`{"query_id":"` + testfixtures.TableQueryID + `","visualization":"table","title":"More"}`),
	})
	require.NotNil(t, inflight)
	require.Equal(t, 1, app.grid.Loading())
	require.True(t, app.status.spinning)

	app.handleEvent(store.Event{
		ID:        "ev-remove",
		Dashboard: testfixtures.FixedDashboardID,
		Type:      tgnats.EventTypeWidget,
		Action:    "remove",
		Meta:      []byte(`{"widget_id":"w-new"}`),
	})
	assert.Equal(t, 0, app.grid.Loading())

	deliverRefreshes(t, app, inflight)

	assert.Equal(t, 0, app.grid.Loading())
	assert.Equal(t, 0, app.status.refreshing)
	assert.False(t, app.status.spinning, "spinner stops once nothing is in flight")
	assert.NotContains(t, app.status.buildRight(), "refreshing")
}

func TestApp_ParamSetByAnotherProcess(t *testing.T) {
	app, _, mr := newTestApp(t, testfixtures.StateWithAll())
	mr.SetRows(testfixtures.TableWidget, 2)
	mr.SetRows(testfixtures.ParamWidget, 1)
	load(t, app)
	require.Equal(t, 285, pixels(t, app, testfixtures.ParamWidget))

	ev := store.Event{
		ID:        "ev-param",
		Dashboard: testfixtures.FixedDashboardID,
		Type:      tgnats.EventTypeParam,
		Action:    "set",
		Meta:      []byte(`{"name":"count"}`),
		Data:      "5",
	}
	mr.SetRows(testfixtures.ParamWidget, 5)
	before := mr.CallCount()
	deliverRefreshes(t, app, app.handleEvent(ev))

	assert.Equal(t, "5", app.params.Values()["count"], "the bar shows the new value")
	assert.Equal(t, before+1, mr.CallCount(), "only the parameterized widget is refreshed")
	assert.Equal(t, "5", mr.LastParams["count"])
	assert.Equal(t, 435, pixels(t, app, testfixtures.ParamWidget))

	// The same value arriving again is an echo and runs nothing.
	deliverRefreshes(t, app, app.handleEvent(ev))
	assert.Equal(t, before+1, mr.CallCount())
}

func TestApp_ParamBarShowsDashboardValues(t *testing.T) {
	st := testfixtures.StateWithParamTable()
	st.Params["count"] = "5"
	app, _, mr := newTestApp(t, st)
	mr.SetRows(testfixtures.ParamWidget, 5)
	app.uiState.Dashboard(testfixtures.FixedDashboardID).Params["count"] = "9"

	load(t, app)

	assert.Equal(t, "5", app.params.Values()["count"])
	assert.Equal(t, "5", mr.LastParams["count"])
}
