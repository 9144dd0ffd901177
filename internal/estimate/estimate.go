// Package estimate computes the grid height a widget needs to show its
// content without clipping.
package estimate

// Visualization types known to the registry.
const (
	TypeTable   = "table"
	TypeCounter = "counter"
	TypeText    = "text"
	TypeChart   = "chart"
)

// Defaults for the table estimator, in dashboard pixels.
const (
	DefaultHeaderPx      = 15
	DefaultTableRowPx    = 33
	DefaultQuantumPx     = 50
	DefaultParameterRows = 2
	DefaultTableLimit    = 200
	DefaultChartRows     = 5
	DefaultCounterRows   = 3
	DefaultTextLinePx    = 20
)

// Metrics describe rendered content. Only the fields relevant to a
// visualization are read.
type Metrics struct {
	RowCount       int // visible table rows
	ParameterCount int // parameters rendered inside the widget body
	Lines          int // rendered text lines
}

// Normalize clamps negative values to zero.
func (m Metrics) Normalize() Metrics {
	if m.RowCount < 0 {
		m.RowCount = 0
	}
	if m.ParameterCount < 0 {
		m.ParameterCount = 0
	}
	if m.Lines < 0 {
		m.Lines = 0
	}
	return m
}

// Estimator returns the minimum grid height for the given content.
type Estimator interface {
	Estimate(m Metrics) int
}

// Func adapts a function to Estimator.
type Func func(m Metrics) int

// Estimate calls f.
func (f Func) Estimate(m Metrics) int { return f(m.Normalize()) }

// Table sizes tabular content with a band table. Widgets whose query has
// parameters get ParameterRows extra rows for the parameter bar.
type Table struct {
	Bands         Bands
	ParameterRows int
}

// NewTable returns a Table estimator with the default band table.
func NewTable() Table {
	return Table{
		Bands:         TableBands(DefaultHeaderPx, DefaultTableRowPx, DefaultQuantumPx, DefaultTableLimit),
		ParameterRows: DefaultParameterRows,
	}
}

// Estimate implements Estimator.
func (t Table) Estimate(m Metrics) int {
	m = m.Normalize()
	return t.Bands.Height(m.RowCount) + paramRows(m, t.ParameterRows)
}

// Fixed returns the same height regardless of content, plus parameter rows.
type Fixed struct {
	Rows          int
	ParameterRows int
}

// Estimate implements Estimator.
func (f Fixed) Estimate(m Metrics) int {
	return f.Rows + paramRows(m.Normalize(), f.ParameterRows)
}

// Text sizes rendered markdown by its line count.
type Text struct {
	LineUnits int
	Quantum   int
}

// Estimate implements Estimator.
func (t Text) Estimate(m Metrics) int {
	m = m.Normalize()
	q := t.Quantum
	if q <= 0 {
		q = DefaultQuantumPx
	}
	h := (m.Lines*t.LineUnits + q - 1) / q
	if h < 1 {
		h = 1
	}
	return h
}

func paramRows(m Metrics, rows int) int {
	if m.ParameterCount > 0 {
		return rows
	}
	return 0
}
