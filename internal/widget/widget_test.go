package widget

import (
	"testing"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	board      *Board
	resize     *ResizeController
	reconciler *Reconciler
	geometry   grid.Geometry
}

func newEngine() *engine {
	b := NewBoard(DefaultColumns)
	g := grid.Pixels()
	return &engine{
		board:      b,
		resize:     NewResizeController(b, g),
		reconciler: NewReconciler(b, estimate.NewRegistry(estimate.DefaultOptions())),
		geometry:   g,
	}
}

func (e *engine) pixels(t *testing.T, id string) int {
	t.Helper()
	l, ok := e.board.Get(id)
	require.True(t, ok, "widget %s not on board", id)
	return e.geometry.ToPixels(l.GridHeight)
}

func (e *engine) placeTable(id string, m estimate.Metrics) {
	e.reconciler.Place(Layout{ID: id, Visualization: estimate.TypeTable}, m)
}

func TestTwoRowTableHeight(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 2})
	assert.Equal(t, 235, e.pixels(t, "w1"))
}

func TestFiveRowTableHeight(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 5})
	assert.Equal(t, 335, e.pixels(t, "w1"))
}

func TestParameterizedTableGrowsWithRows(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 1, ParameterCount: 1})
	assert.Equal(t, 285, e.pixels(t, "w1"))

	changed := e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: 5, ParameterCount: 1})
	assert.True(t, changed)
	assert.Equal(t, 435, e.pixels(t, "w1"))
}

func TestManualResizeRevokesAutoHeight(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 1, ParameterCount: 1})
	require.Equal(t, 285, e.pixels(t, "w1"))

	rows, ok := e.resize.ResizeBy("w1", 50)
	require.True(t, ok)
	assert.Equal(t, 4, rows)
	assert.Equal(t, 335, e.pixels(t, "w1"))

	l, _ := e.board.Get("w1")
	assert.False(t, l.AutoHeight())

	changed := e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: 5, ParameterCount: 1})
	assert.False(t, changed)
	assert.Equal(t, 335, e.pixels(t, "w1"))
	assert.Equal(t, 5, l.ContentRowCount, "metrics are still recorded")
}

func TestAutoHeight_FollowsEstimatorRegardlessOfPriorHeight(t *testing.T) {
	e := newEngine()
	est := estimate.NewTable()
	e.placeTable("w1", estimate.Metrics{RowCount: 40})

	for _, n := range []int{0, 3, 17, 2, 100, 1} {
		e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: n})
		l, _ := e.board.Get("w1")
		assert.Equal(t, est.Estimate(estimate.Metrics{RowCount: n}), l.GridHeight, "n=%d", n)
	}
}

func TestApplyContentHeight_Idempotent(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 1})

	assert.True(t, e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: 7}))
	once, _ := e.board.Get("w1")
	h := once.GridHeight

	assert.False(t, e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: 7}))
	twice, _ := e.board.Get("w1")
	assert.Equal(t, h, twice.GridHeight)
}

func TestManualMode_IsMonotonic(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 3})
	e.resize.ResizeBy("w1", -50)

	for i, n := range []int{0, 9, 1, 50} {
		e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: n})
		e.board.ApplyContentHeight("w1", i+10)
		l, _ := e.board.Get("w1")
		require.Equal(t, ModeManual, l.Mode)
	}

	// A later manual resize still works and keeps the mode.
	e.resize.ResizeBy("w1", 100)
	l, _ := e.board.Get("w1")
	assert.Equal(t, ModeManual, l.Mode)
	assert.Equal(t, 4, l.GridHeight)
}

func TestLayout_ApplyManualResizeIsAtomic(t *testing.T) {
	l := &Layout{ID: "w", GridHeight: 3}

	assert.True(t, l.ApplyManualResize(3), "switching mode counts as a change")
	assert.Equal(t, ModeManual, l.Mode)
	assert.Equal(t, 3, l.GridHeight)

	assert.False(t, l.ApplyManualResize(3))
	assert.True(t, l.ApplyManualResize(-2))
	assert.Equal(t, 0, l.GridHeight)
}

func TestLayout_ApplyContentHeight(t *testing.T) {
	l := &Layout{ID: "w"}

	assert.True(t, l.ApplyContentHeight(4))
	assert.False(t, l.ApplyContentHeight(4))
	assert.True(t, l.ApplyContentHeight(-1))
	assert.Equal(t, 0, l.GridHeight)
}

func TestStaleWidget_SilentNoop(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 2})
	require.True(t, e.board.Remove("w1"))

	assert.False(t, e.board.Remove("w1"))
	assert.False(t, e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: 5}))
	assert.False(t, e.board.ApplyManualResize("w1", 3))
	assert.False(t, e.board.ApplyContentHeight("w1", 3))
	_, ok := e.resize.ResizeBy("w1", 50)
	assert.False(t, ok)
	assert.Equal(t, 0, e.board.Len())
}

func TestResizeController_CommitsOncePerGesture(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 2})

	require.True(t, e.resize.Begin("w1"))
	e.resize.Move(10)
	e.resize.Move(60)
	e.resize.Move(100)

	id, rows, ok := e.resize.Preview()
	require.True(t, ok)
	assert.Equal(t, "w1", id)
	assert.Equal(t, 4, rows)

	l, _ := e.board.Get("w1")
	assert.Equal(t, 2, l.GridHeight, "moves do not touch the board")
	assert.True(t, l.AutoHeight())

	_, rows, ok = e.resize.Commit()
	require.True(t, ok)
	assert.Equal(t, 4, rows)
	assert.Equal(t, 4, l.GridHeight)
	assert.False(t, l.AutoHeight())

	_, _, ok = e.resize.Commit()
	assert.False(t, ok, "second commit without Begin")
	assert.Equal(t, 4, l.GridHeight)
}

func TestResizeController_SubQuantumRounds(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 2})

	rows, ok := e.resize.ResizeBy("w1", 30)
	require.True(t, ok)
	assert.Equal(t, 3, rows)

	rows, _ = e.resize.ResizeBy("w1", 10)
	assert.Equal(t, 3, rows, "below half a row rounds to no change")
	l, _ := e.board.Get("w1")
	assert.False(t, l.AutoHeight(), "the gesture still counts as a manual resize")
}

func TestResizeController_ClampsToOneRow(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 5})

	rows, ok := e.resize.ResizeBy("w1", -1000)
	require.True(t, ok)
	assert.Equal(t, 1, rows)
}

func TestResizeController_CancelLeavesAutoHeight(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 2})

	e.resize.Begin("w1")
	e.resize.Move(200)
	e.resize.Cancel()

	l, _ := e.board.Get("w1")
	assert.True(t, l.AutoHeight())
	assert.Equal(t, 2, l.GridHeight)
	assert.False(t, e.resize.Active())
}

func TestResizeController_WidgetRemovedMidGesture(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 2})

	e.resize.Begin("w1")
	e.resize.Move(50)
	e.board.Remove("w1")

	_, _, ok := e.resize.Commit()
	assert.False(t, ok)
	assert.False(t, e.resize.Active())
}

func TestRefreshInFlightDuringResize(t *testing.T) {
	e := newEngine()
	e.placeTable("w1", estimate.Metrics{RowCount: 1, ParameterCount: 1})

	// A refresh is requested while the widget is in auto mode...
	l, _ := e.board.Get("w1")
	requestedInAuto := l.AutoHeight()
	require.True(t, requestedInAuto)

	// ...the user commits a resize before the response arrives...
	e.resize.ResizeBy("w1", 50)

	// ...and the late response does not clobber it.
	assert.False(t, e.reconciler.Reconcile("w1", estimate.Metrics{RowCount: 5, ParameterCount: 1}))
	assert.Equal(t, 335, e.pixels(t, "w1"))
}

func TestMode_StringAndParse(t *testing.T) {
	for _, m := range []Mode{ModeAuto, ModeManual} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("sticky")
	assert.Error(t, err)
	assert.Equal(t, "mode(7)", Mode(7).String())
}
