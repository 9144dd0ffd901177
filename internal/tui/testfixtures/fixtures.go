package testfixtures

import (
	"time"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/query"
	"github.com/mark3labs/tilegrid/internal/store"
	"github.com/mark3labs/tilegrid/internal/widget"
)

// Fixed test values
const (
	FixedDashboardID   = "d1"
	FixedDashboardSlug = "sales"
	FixedDashboardName = "Sales"

	// Widget IDs used by the fixtures
	TableWidget  = "w-table"
	ParamWidget  = "w-param"
	TextWidget   = "w-text"
	TableQueryID = "q-table"
	ParamQueryID = "q-param"
)

var FixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// EmptyState returns a dashboard with no widgets.
func EmptyState() *store.State {
	s := store.NewStore(nil, nil, store.DefaultOptions())
	return s.NewState(&store.Dashboard{
		ID:        FixedDashboardID,
		Slug:      FixedDashboardSlug,
		Name:      FixedDashboardName,
		CreatedAt: FixedTime,
	}, nil)
}

// StateWithTable returns a dashboard with one table widget on the left
// half of the grid. Its query has no parameters.
func StateWithTable() *store.State {
	st := EmptyState()
	st.Catalog.Queries[TableQueryID] = &store.Query{
		ID:       TableQueryID,
		Name:     "Orders",
		SQL:      "select * from orders",
		Revision: 1,
	}
	addWidget(st, TableWidget, TableQueryID, estimate.TypeTable, "Orders", "", 0)
	return st
}

// StateWithParamTable returns a dashboard with one table widget whose
// query takes a numeric "count" parameter.
func StateWithParamTable() *store.State {
	st := EmptyState()
	st.Catalog.Queries[ParamQueryID] = &store.Query{
		ID:   ParamQueryID,
		Name: "Series",
		SQL:  "select a from series limit {{ count }}",
		Parameters: []query.Parameter{
			{Name: "count", Title: "Count", Type: query.ParamNumber, Default: "1"},
		},
		Revision: 1,
	}
	addWidget(st, ParamWidget, ParamQueryID, estimate.TypeTable, "Series", "", 0)
	return st
}

// StateWithAll returns a dashboard with a table, a parameterized table and
// a text widget.
func StateWithAll() *store.State {
	st := StateWithTable()
	st.Catalog.Queries[ParamQueryID] = &store.Query{
		ID:   ParamQueryID,
		Name: "Series",
		SQL:  "select a from series limit {{ count }}",
		Parameters: []query.Parameter{
			{Name: "count", Title: "Count", Type: query.ParamNumber, Default: "1"},
		},
		Revision: 1,
	}
	addWidget(st, ParamWidget, ParamQueryID, estimate.TypeTable, "Series", "", 3)
	addWidget(st, TextWidget, "", estimate.TypeText, "Notes", "# Notes\n\nRefreshed hourly.", 0)
	return st
}

func addWidget(st *store.State, id, queryID, vt, title, text string, col int) {
	st.Widgets[id] = &store.Widget{
		ID:            id,
		QueryID:       queryID,
		Visualization: vt,
		Title:         title,
		Text:          text,
		CreatedAt:     FixedTime,
	}
	st.Reconciler().Place(widget.Layout{
		ID:            id,
		Visualization: vt,
		Col:           col,
		Width:         st.Board.Columns() / 2,
	}, estimate.Metrics{})
}
