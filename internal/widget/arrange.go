package widget

// DefaultColumns is the grid width of a dashboard.
const DefaultColumns = 6

// Arrange computes Row for every widget with vertical compaction: widgets
// are placed in board order at their column span, as high as possible
// without overlapping an earlier widget.
func (b *Board) Arrange() {
	// colBottom[c] is the first free row in column c.
	colBottom := make([]int, b.columns)
	for _, id := range b.order {
		l := b.layouts[id]
		top := 0
		for c := l.Col; c < l.Col+l.Width && c < len(colBottom); c++ {
			if colBottom[c] > top {
				top = colBottom[c]
			}
		}
		l.Row = top
		for c := l.Col; c < l.Col+l.Width && c < len(colBottom); c++ {
			colBottom[c] = l.Bottom()
		}
	}
}

// Height returns the total number of grid rows used by the board.
func (b *Board) Height() int {
	h := 0
	for _, id := range b.order {
		if bottom := b.layouts[id].Bottom(); bottom > h {
			h = bottom
		}
	}
	return h
}
