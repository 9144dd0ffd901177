package tui

import (
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/grid"
	"github.com/mark3labs/tilegrid/internal/tui/testfixtures"
	"github.com/mark3labs/tilegrid/internal/viz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T) *GridView {
	t.Helper()
	st := testfixtures.StateWithAll()
	st.Reconciler().Reconcile(testfixtures.TableWidget, estimate.Metrics{RowCount: 2})
	st.Reconciler().Reconcile(testfixtures.ParamWidget, estimate.Metrics{RowCount: 1, ParameterCount: 1})

	g := NewGridView(testfixtures.TerminalGeometry(), grid.Pixels())
	g.SetState(st)
	g.SetArea(uv.Rect(0, 0, testfixtures.TestTermWidth, 30))
	return g
}

func TestGridView_Frames(t *testing.T) {
	g := newTestGrid(t)

	table, ok := g.frame(testfixtures.TableWidget)
	require.True(t, ok)
	assert.Equal(t, 0, table.x)
	assert.Equal(t, 0, table.y)
	assert.Equal(t, 60, table.w)
	assert.Equal(t, 7, table.h, "3 lines of chrome plus 2 lines per row")

	param, ok := g.frame(testfixtures.ParamWidget)
	require.True(t, ok)
	assert.Equal(t, 60, param.x)
	assert.Equal(t, 0, param.y)
	assert.Equal(t, 9, param.h)

	text, ok := g.frame(testfixtures.TextWidget)
	require.True(t, ok)
	assert.Equal(t, 0, text.x)
	assert.Equal(t, table.h, text.y, "text widget stacks under the table")
}

func TestGridView_HitTesting(t *testing.T) {
	g := newTestGrid(t)

	id, ok := g.HandleAt(10, 6)
	require.True(t, ok)
	assert.Equal(t, testfixtures.TableWidget, id)

	_, ok = g.HandleAt(10, 5)
	assert.False(t, ok, "body lines are not the handle")

	id, ok = g.WidgetAt(70, 3)
	require.True(t, ok)
	assert.Equal(t, testfixtures.ParamWidget, id)

	_, ok = g.WidgetAt(500, 3)
	assert.False(t, ok)
}

func TestGridView_PreviewDoesNotTouchBoard(t *testing.T) {
	g := newTestGrid(t)

	g.SetPreview(testfixtures.TableWidget, 5)
	f, _ := g.frame(testfixtures.TableWidget)
	assert.Equal(t, 13, f.h)
	l, _ := g.state.Board.Get(testfixtures.TableWidget)
	assert.Equal(t, 2, l.GridHeight)

	text, _ := g.frame(testfixtures.TextWidget)
	assert.Equal(t, 13, text.y, "widgets below move with the preview")

	lines := testfixtures.Render(g.Draw)
	assert.True(t, testfixtures.Contains(lines, "2 → 5 rows · 385px"))

	g.SetPreview("", 0)
	f, _ = g.frame(testfixtures.TableWidget)
	assert.Equal(t, 7, f.h)
}

func TestGridView_Scroll(t *testing.T) {
	g := newTestGrid(t)
	g.SetArea(uv.Rect(0, 0, testfixtures.TestTermWidth, 10))

	g.Scroll(100)
	assert.Equal(t, g.ContentHeight()-10, g.offset)

	g.Scroll(-100)
	assert.Equal(t, 0, g.offset)

	// Focusing a widget below the fold scrolls to it.
	g.Focus(testfixtures.TextWidget)
	assert.Equal(t, 2, g.offset)

	id, ok := g.WidgetAt(1, 5)
	require.True(t, ok)
	assert.Equal(t, testfixtures.TextWidget, id)
}

func TestGridView_DrawsContentAndHandles(t *testing.T) {
	g := newTestGrid(t)
	g.SetContent(testfixtures.TableWidget, viz.Content{Body: "row 1\nrow 2"})
	g.SetLoading(testfixtures.ParamWidget)

	lines := testfixtures.Render(g.Draw)
	assert.True(t, testfixtures.Contains(lines, "Orders"))
	assert.True(t, testfixtures.Contains(lines, "row 2"))
	assert.True(t, testfixtures.Contains(lines, "refreshing"))
	assert.False(t, testfixtures.Contains(lines, "═══"))

	g.SetEditing(true)
	lines = testfixtures.Render(g.Draw)
	assert.True(t, testfixtures.Contains(lines, "═══"))
}

func TestGridView_ClipsLongLines(t *testing.T) {
	g := newTestGrid(t)
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	g.SetContent(testfixtures.TableWidget, viz.Content{Body: string(long)})

	f, _ := g.frame(testfixtures.TableWidget)
	for _, line := range g.renderFrame(f) {
		assert.LessOrEqual(t, ansi.StringWidth(line), f.w)
	}
}

func TestGridView_SyncDropsRemovedWidgets(t *testing.T) {
	g := newTestGrid(t)
	g.SetContent(testfixtures.TableWidget, viz.Content{Body: "x"})
	g.Focus(testfixtures.TableWidget)

	g.state.Board.Remove(testfixtures.TableWidget)
	g.Sync()

	_, ok := g.contents[testfixtures.TableWidget]
	assert.False(t, ok)
	assert.NotEqual(t, testfixtures.TableWidget, g.Focused())
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "abc…", fit("abcdef", 4))
	assert.Equal(t, "", fit("abc", 0))
}
