// Package grid converts between rendered heights and discrete grid rows.
package grid

// Default dashboard scale. A widget with N grid rows renders at
// DefaultChromePx + N*DefaultRowPx pixels.
const (
	DefaultChromePx = 135
	DefaultRowPx    = 50
	DefaultMinRows  = 1
)

// Geometry describes one vertical scale of the grid: a fixed chrome offset
// (header, padding, borders) plus a quantum per grid row. The same type is
// used for the pixel scale of the dashboard and the line scale of the TUI.
type Geometry struct {
	ChromeUnits int // fixed offset added to every widget
	RowUnits    int // height of one grid row
	MinRows     int // lower clamp for manual resizes
	MaxRows     int // upper clamp for manual resizes, 0 = unbounded
}

// Pixels returns the default pixel geometry.
func Pixels() Geometry {
	return Geometry{
		ChromeUnits: DefaultChromePx,
		RowUnits:    DefaultRowPx,
		MinRows:     DefaultMinRows,
	}
}

// ToPixels returns the rendered height of a widget that is rows tall.
// Negative row counts are treated as zero.
func (g Geometry) ToPixels(rows int) int {
	if rows < 0 {
		rows = 0
	}
	return g.ChromeUnits + rows*g.RowUnits
}

// ToGridUnits returns the row count whose rendered height is closest to px.
// Heights below the chrome offset map to zero rows.
func (g Geometry) ToGridUnits(px int) int {
	if g.RowUnits <= 0 {
		return 0
	}
	content := px - g.ChromeUnits
	if content <= 0 {
		return 0
	}
	return roundDiv(content, g.RowUnits)
}

// DeltaRows converts a drag distance into whole rows, rounding to the
// nearest row with halves rounded away from zero.
func (g Geometry) DeltaRows(deltaPx int) int {
	if g.RowUnits <= 0 {
		return 0
	}
	if deltaPx < 0 {
		return -roundDiv(-deltaPx, g.RowUnits)
	}
	return roundDiv(deltaPx, g.RowUnits)
}

// Resize applies a drag of deltaPx to a widget that is rows tall and clamps
// the result to [MinRows, MaxRows].
func (g Geometry) Resize(rows, deltaPx int) int {
	return g.Clamp(rows + g.DeltaRows(deltaPx))
}

// Clamp bounds rows to the geometry's manual resize range. A widget is
// never shorter than one row, whatever MinRows says.
func (g Geometry) Clamp(rows int) int {
	lo := g.MinRows
	if lo < 1 {
		lo = 1
	}
	if rows < lo {
		rows = lo
	}
	if g.MaxRows > 0 && rows > g.MaxRows {
		rows = g.MaxRows
	}
	return rows
}

// RowsFor returns the rows needed to hold content of the given height
// without clipping. Unlike ToGridUnits it always rounds up.
func (g Geometry) RowsFor(contentUnits int) int {
	if g.RowUnits <= 0 || contentUnits <= 0 {
		return 0
	}
	return (contentUnits + g.RowUnits - 1) / g.RowUnits
}

// roundDiv divides two non-negative ints rounding half up.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}
