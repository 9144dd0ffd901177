// Package widget holds the per-widget layout state of a dashboard and the
// two ways it changes: manual resize gestures and content refreshes.
//
// A widget starts in ModeAuto, where its height follows its content. The
// first committed manual resize moves it to ModeManual for the rest of its
// lifetime; content refreshes no longer touch its height.
package widget

import "fmt"

// Mode is the height mode of a widget.
type Mode int

const (
	// ModeAuto derives the height from the widget's content.
	ModeAuto Mode = iota
	// ModeManual keeps the height the user chose. Terminal.
	ModeManual
)

// String returns "auto" or "manual".
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeManual:
		return "manual"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the output of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto":
		return ModeAuto, nil
	case "manual":
		return ModeManual, nil
	default:
		return ModeAuto, fmt.Errorf("invalid height mode: %s", s)
	}
}

// Layout is the layout record of one widget.
type Layout struct {
	ID              string
	Visualization   string
	GridHeight      int
	Mode            Mode
	ContentRowCount int

	// Placement on the grid. Row is computed by Arrange.
	Col   int
	Width int
	Row   int
}

// AutoHeight reports whether the height still follows the content.
func (l *Layout) AutoHeight() bool {
	return l.Mode == ModeAuto
}

// ApplyContentHeight sets the height derived from content. It does nothing
// once the widget has been resized manually. Reports whether the height
// changed.
func (l *Layout) ApplyContentHeight(rows int) bool {
	if l.Mode != ModeAuto {
		return false
	}
	rows = nonNegative(rows)
	if l.GridHeight == rows {
		return false
	}
	l.GridHeight = rows
	return true
}

// ApplyManualResize sets a user-chosen height and permanently disables auto
// height in the same step. Reports whether anything changed.
func (l *Layout) ApplyManualResize(rows int) bool {
	rows = nonNegative(rows)
	changed := l.Mode != ModeManual || l.GridHeight != rows
	l.GridHeight = rows
	l.Mode = ModeManual
	return changed
}

// Bottom is the first grid row below the widget.
func (l *Layout) Bottom() int {
	return l.Row + l.GridHeight
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
