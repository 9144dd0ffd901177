package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/widget"
	"github.com/rs/xid"
)

// WidgetAddParams are the inputs of WidgetAdd.
type WidgetAddParams struct {
	QueryID       string `json:"query_id,omitempty"`
	Visualization string `json:"visualization,omitempty"`
	Title         string `json:"title,omitempty"`
	Text          string `json:"text,omitempty"` // markdown for text widgets
	Col           int    `json:"col,omitempty"`
	Width         int    `json:"width,omitempty"`

	// Metrics of the initial content, if already rendered.
	Metrics estimate.Metrics `json:"-"`
}

// WidgetAdd places a new widget on a dashboard in auto height mode.
func (s *Store) WidgetAdd(ctx context.Context, dashboard string, params WidgetAddParams) (*Widget, error) {
	st, err := s.LoadState(ctx, dashboard)
	if err != nil {
		return nil, err
	}

	viz := params.Visualization
	if viz == "" {
		viz = estimate.TypeTable
		if params.QueryID == "" {
			viz = estimate.TypeText
		}
	}

	m := params.Metrics
	title := params.Title
	if viz == estimate.TypeText {
		if params.Text == "" {
			return nil, fmt.Errorf("text widgets need text")
		}
		if title == "" {
			title = "Text"
		}
	} else {
		q, ok := st.Catalog.Queries[params.QueryID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrQueryNotFound, params.QueryID)
		}
		if title == "" {
			title = q.Name
		}
		if m.ParameterCount == 0 {
			m.ParameterCount = len(q.Parameters)
		}
	}

	width := params.Width
	if width <= 0 {
		width = defaultWidth(st.Board.Columns())
	}
	col := params.Col
	if params.Col <= 0 && params.Width <= 0 {
		col = nextCol(st.Board, width)
	}

	w := &Widget{
		ID:            xid.New().String(),
		QueryID:       params.QueryID,
		Visualization: viz,
		Title:         title,
		Text:          params.Text,
		CreatedAt:     time.Now(),
	}
	err = s.publishWidget(ctx, st.Dashboard.ID, w.ID, "add", widgetMeta{
		QueryID:        w.QueryID,
		Visualization:  w.Visualization,
		Title:          w.Title,
		Col:            col,
		Width:          width,
		RowCount:       m.RowCount,
		ParameterCount: m.ParameterCount,
		Lines:          m.Lines,
	}, w.Text, w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// WidgetResize applies a drag of deltaPx dashboard pixels to a widget's
// current height and records the result. The widget is in manual height
// mode from then on. Returns the new height in grid rows.
func (s *Store) WidgetResize(ctx context.Context, dashboard, widgetID string, deltaPx int) (int, error) {
	st, err := s.LoadState(ctx, dashboard)
	if err != nil {
		return 0, err
	}
	rc := widget.NewResizeController(st.Board, s.opts.Geometry)
	rows, ok := rc.ResizeBy(widgetID, deltaPx)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	if err := s.WidgetResizeTo(ctx, st.Dashboard.ID, widgetID, rows); err != nil {
		return 0, err
	}
	return rows, nil
}

// WidgetResizeTo records a committed manual resize to rows grid rows.
func (s *Store) WidgetResizeTo(ctx context.Context, dashboardID, widgetID string, rows int) error {
	return s.publishWidget(ctx, dashboardID, "", "resize", widgetMeta{
		WidgetID: widgetID,
		Rows:     rows,
	}, "", time.Time{})
}

// WidgetContent records the metrics of freshly rendered content.
func (s *Store) WidgetContent(ctx context.Context, dashboardID, widgetID string, m estimate.Metrics) error {
	m = m.Normalize()
	return s.publishWidget(ctx, dashboardID, "", "content", widgetMeta{
		WidgetID:       widgetID,
		RowCount:       m.RowCount,
		ParameterCount: m.ParameterCount,
		Lines:          m.Lines,
	}, "", time.Time{})
}

// WidgetMove changes the column span of a widget. A width of zero or less
// keeps the widget's current width.
func (s *Store) WidgetMove(ctx context.Context, dashboard, widgetID string, col, width int) error {
	st, err := s.LoadState(ctx, dashboard)
	if err != nil {
		return err
	}
	l, ok := st.Board.Get(widgetID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	if width <= 0 {
		width = l.Width
	}
	return s.publishWidget(ctx, st.Dashboard.ID, "", "move", widgetMeta{
		WidgetID: widgetID,
		Col:      col,
		Width:    width,
	}, "", time.Time{})
}

// WidgetRemove deletes a widget.
func (s *Store) WidgetRemove(ctx context.Context, dashboard, widgetID string) error {
	st, err := s.LoadState(ctx, dashboard)
	if err != nil {
		return err
	}
	if _, ok := st.Widgets[widgetID]; !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	return s.publishWidget(ctx, st.Dashboard.ID, "", "remove", widgetMeta{WidgetID: widgetID}, "", time.Time{})
}

// ParamSet records the value of a dashboard parameter.
func (s *Store) ParamSet(ctx context.Context, dashboardID, name, value string) error {
	if name == "" {
		return fmt.Errorf("parameter name is required")
	}
	return s.publish(ctx, dashboardID, nats.EventTypeParam, "set", map[string]string{"name": name}, value)
}

func (s *Store) publishWidget(ctx context.Context, dashboardID, id, action string, meta widgetMeta, data string, ts time.Time) error {
	raw, err := marshalMeta(meta)
	if err != nil {
		return err
	}
	_, err = s.PublishEvent(ctx, Event{
		ID:        id,
		Timestamp: ts,
		Dashboard: dashboardID,
		Type:      nats.EventTypeWidget,
		Action:    action,
		Meta:      raw,
		Data:      data,
	})
	return err
}

func defaultWidth(columns int) int {
	if columns >= 2 {
		return columns / 2
	}
	return columns
}

// nextCol places a widget of the given width to the right of the last
// widget when it fits there, else at column 0.
func nextCol(b *widget.Board, width int) int {
	layouts := b.Layouts()
	if len(layouts) == 0 {
		return 0
	}
	last := layouts[len(layouts)-1]
	if col := last.Col + last.Width; col+width <= b.Columns() {
		return col
	}
	return 0
}
