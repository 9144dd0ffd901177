package widget

import "github.com/mark3labs/tilegrid/internal/estimate"

// Reconciler applies content-derived heights after a refresh.
type Reconciler struct {
	board    *Board
	registry *estimate.Registry
}

// NewReconciler returns a reconciler for board.
func NewReconciler(board *Board, registry *estimate.Registry) *Reconciler {
	return &Reconciler{board: board, registry: registry}
}

// Estimate returns the content height for a widget of type vt without
// touching the board.
func (r *Reconciler) Estimate(vt string, m estimate.Metrics) int {
	return r.registry.Estimate(vt, m)
}

// Reconcile records the new content metrics of widget id and, if the
// widget is still in ModeAuto, resizes it to fit. The mode is read when
// Reconcile runs, not when the refresh was requested, so a manual resize
// committed while a refresh was in flight is never overwritten.
// Reports whether the height changed.
func (r *Reconciler) Reconcile(id string, m estimate.Metrics) bool {
	l, ok := r.board.Get(id)
	if !ok {
		return false
	}
	m = m.Normalize()
	l.ContentRowCount = m.RowCount
	if !l.AutoHeight() {
		return false
	}
	return r.board.ApplyContentHeight(id, r.registry.Estimate(l.Visualization, m))
}

// Place adds a widget sized for its initial content.
func (r *Reconciler) Place(l Layout, m estimate.Metrics) *Layout {
	m = m.Normalize()
	l.GridHeight = r.registry.Estimate(l.Visualization, m)
	l.ContentRowCount = m.RowCount
	return r.board.Add(l)
}
