package widget

import "github.com/mark3labs/tilegrid/internal/grid"

// ResizeController turns drag gestures into manual resizes. Intermediate
// moves only update a preview; the board changes once, on Commit.
type ResizeController struct {
	board    *Board
	geometry grid.Geometry

	active bool
	id     string
	start  int
	delta  int
}

// NewResizeController returns a controller for board using geometry to
// convert drag distances to rows.
func NewResizeController(board *Board, geometry grid.Geometry) *ResizeController {
	return &ResizeController{board: board, geometry: geometry}
}

// Begin starts a gesture on widget id. Any gesture in progress is dropped.
// Returns false if the widget does not exist.
func (c *ResizeController) Begin(id string) bool {
	c.Cancel()
	l, ok := c.board.Get(id)
	if !ok {
		return false
	}
	c.active = true
	c.id = id
	c.start = l.GridHeight
	return true
}

// Move records the total drag distance since Begin.
func (c *ResizeController) Move(deltaUnits int) {
	if !c.active {
		return
	}
	c.delta = deltaUnits
}

// Active reports whether a gesture is in progress.
func (c *ResizeController) Active() bool {
	return c.active
}

// Preview returns the widget being resized and the height it would get if
// the gesture were committed now.
func (c *ResizeController) Preview() (string, int, bool) {
	if !c.active {
		return "", 0, false
	}
	return c.id, c.geometry.Resize(c.start, c.delta), true
}

// Commit ends the gesture and applies its height. It returns the resized
// widget and its new height. A commit without an active gesture, or for a
// widget removed mid-gesture, changes nothing.
func (c *ResizeController) Commit() (string, int, bool) {
	if !c.active {
		return "", 0, false
	}
	id, rows, _ := c.Preview()
	c.Cancel()
	if _, ok := c.board.Get(id); !ok {
		return "", 0, false
	}
	c.board.ApplyManualResize(id, rows)
	return id, rows, true
}

// Cancel drops the gesture without touching the board.
func (c *ResizeController) Cancel() {
	c.active = false
	c.id = ""
	c.start = 0
	c.delta = 0
}

// ResizeBy is a complete gesture in one call, for commit events that
// arrive as (widget, delta) pairs.
func (c *ResizeController) ResizeBy(id string, deltaUnits int) (int, bool) {
	if !c.Begin(id) {
		return 0, false
	}
	c.Move(deltaUnits)
	_, rows, ok := c.Commit()
	return rows, ok
}
