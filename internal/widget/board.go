package widget

// Board is the set of widget layouts on one dashboard, in insertion order.
//
// A Board has no locks. It is owned by a single event loop (the TUI Update
// loop, or one store replay) and every mutation goes through it.
type Board struct {
	order   []string
	layouts map[string]*Layout
	columns int
}

// NewBoard returns an empty board with the given number of grid columns.
func NewBoard(columns int) *Board {
	if columns <= 0 {
		columns = DefaultColumns
	}
	return &Board{
		layouts: make(map[string]*Layout),
		columns: columns,
	}
}

// Columns returns the grid width of the board.
func (b *Board) Columns() int {
	return b.columns
}

// Add places a new widget in ModeAuto. Adding an ID that is already on the
// board does nothing and returns the existing layout.
func (b *Board) Add(l Layout) *Layout {
	if existing, ok := b.layouts[l.ID]; ok {
		return existing
	}
	l.Mode = ModeAuto
	l.GridHeight = nonNegative(l.GridHeight)
	l.Col, l.Width = b.clampSpan(l.Col, l.Width)
	stored := &l
	b.layouts[l.ID] = stored
	b.order = append(b.order, l.ID)
	b.Arrange()
	return stored
}

// Remove deletes a widget. Unknown IDs are ignored.
func (b *Board) Remove(id string) bool {
	if _, ok := b.layouts[id]; !ok {
		return false
	}
	delete(b.layouts, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.Arrange()
	return true
}

// Get returns the layout for id. The pointer is only valid until the
// widget is removed.
func (b *Board) Get(id string) (*Layout, bool) {
	l, ok := b.layouts[id]
	return l, ok
}

// Len returns the number of widgets.
func (b *Board) Len() int {
	return len(b.order)
}

// Layouts returns copies of all layouts in board order.
func (b *Board) Layouts() []Layout {
	out := make([]Layout, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.layouts[id])
	}
	return out
}

// IDs returns widget IDs in board order.
func (b *Board) IDs() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// ApplyContentHeight forwards to the widget's layout. Stale IDs are a
// silent no-op.
func (b *Board) ApplyContentHeight(id string, rows int) bool {
	l, ok := b.layouts[id]
	if !ok {
		return false
	}
	if !l.ApplyContentHeight(rows) {
		return false
	}
	b.Arrange()
	return true
}

// ApplyManualResize forwards to the widget's layout. Stale IDs are a silent
// no-op.
func (b *Board) ApplyManualResize(id string, rows int) bool {
	l, ok := b.layouts[id]
	if !ok {
		return false
	}
	changed := l.ApplyManualResize(rows)
	b.Arrange()
	return changed
}

// Move changes a widget's column span.
func (b *Board) Move(id string, col, width int) bool {
	l, ok := b.layouts[id]
	if !ok {
		return false
	}
	col, width = b.clampSpan(col, width)
	if l.Col == col && l.Width == width {
		return false
	}
	l.Col, l.Width = col, width
	b.Arrange()
	return true
}

func (b *Board) clampSpan(col, width int) (int, int) {
	if width <= 0 || width > b.columns {
		width = b.columns
	}
	if col < 0 {
		col = 0
	}
	if col+width > b.columns {
		col = b.columns - width
	}
	return col, width
}
